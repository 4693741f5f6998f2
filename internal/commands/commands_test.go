package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/testutil"
)

const taskUUID = "0b7e5a8e-2f43-4c61-9d7e-3f1c2a9b8d10"

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, svc, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "todo login", "todo toggle <ref>", "alias: done", "TODO_AUTH_MODE"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for list command
func TestListCommand_WithTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Buy milk", false)
	svc.AddTask("t2", "Buy eggs", true)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	testutil.GoldenString(t, "list_with_tasks", stdout)
}

func TestListCommand_Description(t *testing.T) {
	svc := testutil.NewFakeService()
	if _, err := svc.CreateTask(context.Background(), service.TaskCreate{Title: "Call Bob", Description: "about the\nparty"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	stdout, _, code := runCommand(t, &commands.ListCmd{}, svc, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   1  [ ] Call Bob\n          about the party\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected 'no tasks found', got %q", stdout)
	}
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := runCommand(t, &commands.ListCmd{}, svc, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestListCommand_FilterKeepsNumbers(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Done thing", true)
	svc.AddTask("t2", "Open thing", false)

	cmd := &commands.ListCmd{}
	cmd.SetFilter(true, false)
	stdout, _, code := runCommand(t, cmd, svc, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   2  [ ] Open thing\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_BothFilters(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	cmd.SetFilter(true, true)
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: cannot use both --open and --done\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if svc.Calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.Calls)
	}
}

func TestListCommand_NotLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SignOutLocal()

	_, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: todo login)\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestListCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListErr = service.NewError(service.KindNetwork, 0, "Network error: backend unreachable")

	_, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: Network error: backend unreachable\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDescription("two litres")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}

	tasks := svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].Description != "two litres" {
		t.Errorf("unexpected task: %+v", tasks[0])
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Task"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"  "}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: title required\n" {
		t.Errorf("expected title required error, got %q", stderr)
	}
	if svc.Calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.Calls)
	}
}

func TestAddCommand_ValidationFromBackend(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateErr = service.NewError(service.KindValidation, 422, "String should have at most 255 characters")

	_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"x"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: String should have at most 255 characters\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

// Tests for toggle command
func TestToggleCommand_ByNumber(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "First", false)
	svc.AddTask("t2", "Second", false)

	stdout, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, []string{"2"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok: done\n" {
		t.Errorf("expected 'ok: done', got %q", stdout)
	}
	if tasks := svc.Tasks(); tasks[0].Completed || !tasks[1].Completed {
		t.Errorf("expected only the second task completed: %+v", tasks)
	}

	stdout, _, _ = runCommand(t, &commands.ToggleCmd{}, svc, []string{"2"}, false)
	if stdout != "ok: open\n" {
		t.Errorf("expected 'ok: open' after second toggle, got %q", stdout)
	}
}

func TestToggleCommand_ByUUIDSkipsList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(taskUUID, "Task", false)

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, []string{strings.ToUpper(taskUUID)}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if svc.Calls != 1 {
		t.Errorf("expected a single toggle call, got %d calls", svc.Calls)
	}
}

func TestToggleCommand_NoRef(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("expected task reference required error, got %q", stderr)
	}
}

func TestToggleCommand_OutOfRange(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Only task", false)

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, []string{"5"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task number out of range: 5\n" {
		t.Errorf("expected out of range error, got %q", stderr)
	}
}

func TestToggleCommand_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, svc, []string{taskUUID}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "Task not found") {
		t.Errorf("expected not found error, got %q", stderr)
	}
}

// Tests for edit command
func TestEditCommand_Title(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Old", false)

	cmd := &commands.EditCmd{}
	cmd.SetTitle("New")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if got := svc.Tasks()[0]; got.Title != "New" || got.Completed {
		t.Errorf("unexpected task after edit: %+v", got)
	}
}

func TestEditCommand_Completed(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Task", false)

	cmd := &commands.EditCmd{}
	cmd.SetCompleted(true)
	_, _, code := runCommand(t, cmd, svc, []string{"1"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got := svc.Tasks()[0]; !got.Completed || got.Title != "Task" {
		t.Errorf("unexpected task after edit: %+v", got)
	}
}

func TestEditCommand_NothingToUpdate(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Task", false)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, svc, []string{"1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: nothing to update") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if svc.Calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.Calls)
	}
}

func TestEditCommand_BlankTitle(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Task", false)

	cmd := &commands.EditCmd{}
	cmd.SetTitle("   ")
	_, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
	if got := svc.Tasks()[0]; got.Title != "Task" {
		t.Errorf("title should be unchanged, got %q", got.Title)
	}
}

// Tests for rm command
func TestRmCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Task 1", false)
	svc.AddTask("t2", "Task 2", false)

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "t2" {
		t.Errorf("expected only t2 left, got %+v", tasks)
	}
}

func TestRmCommand_AlreadyDeleted(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{taskUUID}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok (already deleted)\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestRmCommand_NoRef(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("expected task reference required error, got %q", stderr)
	}
}

func TestRmCommand_Forbidden(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.DeleteErr = service.NewError(service.KindForbidden, 403, "Forbidden")

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{taskUUID}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Forbidden\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRmCommand_SessionExpired(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.DeleteErr = service.NewError(service.KindAuthExpired, 401, "Session expired, please sign in again")

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{taskUUID}, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: Session expired, please sign in again (run: todo login)\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}
