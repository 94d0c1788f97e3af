package cascade

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

// Step is one delete in a dependency-ordered plan. Children always appear
// before the rows they reference.
type Step struct {
	Name   string
	Delete func(ctx context.Context, tx *gorm.DB) (int64, error)
}

// Plan is the ordered list of steps that erases an aggregate.
type Plan struct {
	Name  string
	Steps []Step
}

// Result reports rows deleted per step, in plan order.
type Result struct {
	RowsByStep map[string]int64
	TotalRows  int64
}

// Execute runs every step inside the supplied transaction. The first
// failing step aborts the plan; the caller's transaction rolls back, so
// partial deletes never survive.
func Execute(ctx context.Context, tx *gorm.DB, plan Plan) (Result, error) {
	if tx == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "transaction is required")
	}
	if len(plan.Steps) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cascade plan %q has no steps", plan.Name))
	}

	result := Result{RowsByStep: make(map[string]int64, len(plan.Steps))}
	for _, step := range plan.Steps {
		if step.Delete == nil {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cascade step %q has no delete", step.Name))
		}
		rows, err := step.Delete(ctx, tx)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("cascade %s: step %s", plan.Name, step.Name))
		}
		result.RowsByStep[step.Name] = rows
		result.TotalRows += rows
	}
	return result, nil
}

// DeleteWhere builds a step that removes all rows of model matching the
// query. The common case for plan construction.
func DeleteWhere(name string, model any, query string, args ...any) Step {
	return Step{
		Name: name,
		Delete: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			res := tx.WithContext(ctx).Where(query, args...).Delete(model)
			return res.RowsAffected, res.Error
		},
	}
}

// ClearExec builds a step from a raw UPDATE that nulls references into
// rows a later step deletes, so the delete does not trip a foreign key.
func ClearExec(name string, sql string, args ...any) Step {
	return Step{
		Name: name,
		Delete: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			res := tx.WithContext(ctx).Exec(sql, args...)
			return res.RowsAffected, res.Error
		},
	}
}

// DeleteExec builds a step from a raw SQL statement, for deletes that
// need subqueries across tables.
func DeleteExec(name string, sql string, args ...any) Step {
	return Step{
		Name: name,
		Delete: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			res := tx.WithContext(ctx).Exec(sql, args...)
			return res.RowsAffected, res.Error
		},
	}
}
