package commands

import (
	"context"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
)

// resolveTaskID turns a reference into a task id.
// Numbers are resolved against the current task list, in the order "todo list" prints it.
func resolveTaskID(ctx context.Context, svc service.Service, ref TaskRef) (string, error) {
	if ref.ID != "" {
		return ref.ID, nil
	}

	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	if ref.Num < 1 || ref.Num > len(tasks) {
		return "", service.NewError(service.KindValidation, 0, fmt.Sprintf("task number out of range: %d", ref.Num))
	}
	return tasks[ref.Num-1].ID, nil
}

// parseAndResolve is shared by the commands that act on one task.
// On failure it prints the error and returns a non-zero exit code.
func parseAndResolve(ctx context.Context, svc service.Service, args []string, errOut io.Writer) (string, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return "", exitcode.UserError
	}

	id, err := resolveTaskID(ctx, svc, ref)
	if err != nil {
		return "", reportError(errOut, err)
	}
	return id, exitcode.Success
}
