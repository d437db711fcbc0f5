package cli

import (
	"context"
	"testing"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureCmd_ManualBuildSavesAndAdvances(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Habit Lab", domain.StageDetails)

	script := "add week\n" +
		"rename week 1 Foundations\n" +
		"objectives week 1 Notice triggers; Pick one habit\n" +
		"add task 1\n" +
		"edit task 1 1 title=Morning check in type=daily check-in\n" +
		"add week\n" +
		"move week 2 up\n" +
		"save\n"
	out, err := executeCmdWithInput(t, app, script, "course", "structure", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Manual authoring selected.")
	assert.Contains(t, out, "No weeks yet.")
	assert.Contains(t, out, "Added week 1")
	assert.Contains(t, out, "Added task 1 to week 1 (Lesson)")
	assert.Contains(t, out, "Structure saved: 2 weeks, 1 task")
	assert.Contains(t, out, "Next: coachlab course materials "+c.ID[:8])

	got := reload(t, app, c.ID)
	assert.Equal(t, domain.StageMaterials, got.CreationStage)
	require.Len(t, got.Weeks, 2)
	assert.Empty(t, got.Weeks[0].Tasks, "the blank week moved to the top")
	assert.Equal(t, "Foundations", got.Weeks[1].Title)
	assert.Equal(t, 2, got.Weeks[1].WeekNumber)
	assert.Equal(t, []string{"Notice triggers", "Pick one habit"}, got.Weeks[1].Objectives)
	require.Len(t, got.Weeks[1].Tasks, 1)
	assert.Equal(t, "Morning check in", got.Weeks[1].Tasks[0].Title)
	assert.Equal(t, domain.TaskDailyCheckIn, got.Weeks[1].Tasks[0].Type)
}

func TestStructureCmd_EOFDiscardsUnsaved(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Unsaved", domain.StageAIStructure)

	out, err := executeCmdWithInput(t, app, "add week\n", "course", "structure", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Unsaved changes discarded.")

	got := reload(t, app, c.ID)
	assert.Empty(t, got.Weeks)
	assert.Equal(t, domain.StageAIStructure, got.CreationStage)
}

func TestStructureCmd_QuitAsksWhenDirty(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Dirty", domain.StageAIStructure)

	out, err := executeCmdWithInput(t, app, "add week\nquit\nn\nquit\ny\n", "course", "structure", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Discard unsaved changes? [y/N]: ")
	assert.Contains(t, out, "structure*> ", "the prompt marks unsaved changes")
	assert.NotContains(t, out, "Unsaved changes discarded.", "quit after confirming does not hit EOF")
	assert.Empty(t, reload(t, app, c.ID).Weeks)
}

func TestStructureCmd_ErrorsKeepTheShellRunning(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Typos", domain.StageAIStructure)

	out, err := executeCmdWithInput(t, app, "frobnicate\nadd task 9\nmove week 1 sideways\nedit task 1 1\nquit\n", "course", "structure", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `Error: unknown command "frobnicate"`)
	assert.Contains(t, out, `Error: no week "9" (have 0)`)
	assert.Contains(t, out, `Error: direction must be up or down, got "sideways"`)
	assert.Contains(t, out, `Error: no week "1" (have 0)`)
}

func TestStructureCmd_StageGuard(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Past It", domain.StagePersonas)

	_, err := executeCmd(t, app, "course", "structure", c.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coachlab course coaches "+c.ID[:8])
}

func TestStructureCmd_DeleteAsksWhenClientsAffected(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()
	c := seedPublished(t, app, "Running", testutil.NewTestWeeks(2, 1))
	require.NoError(t, app.Enrollment.Enroll(ctx, c.ID, "ana"))
	require.NoError(t, app.Enrollment.RecordCompletion(ctx, c.ID, c.Weeks[0].Tasks[0].ID, "ana"))

	out, err := executeCmdWithInput(t, app, "delete week 1\nn\ndelete week 1\ny\nsave\nquit\n", "course", "structure", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `Deleting week 1 "Week 1" affects enrolled clients:`)
	assert.Contains(t, out, "1 client enrolled")
	assert.Contains(t, out, "1 completion recorded")
	assert.Contains(t, out, "Kept.")
	assert.Contains(t, out, "Deleted week")
	assert.Contains(t, out, "Changes saved")

	got := reload(t, app, c.ID)
	assert.Equal(t, domain.StagePublished, got.CreationStage)
	require.Len(t, got.Weeks, 1)
	assert.Equal(t, "Week 2", got.Weeks[0].Title)
	assert.Equal(t, 1, got.Weeks[0].WeekNumber)
}

func TestStructureCmd_UnsavedWeekDeletesWithoutAsking(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Fresh", domain.StageAIStructure)

	out, err := executeCmdWithInput(t, app, "add week\ndelete week 1\nquit\n", "course", "structure", c.ID)
	require.NoError(t, err)
	assert.NotContains(t, out, "affects enrolled clients")
	assert.Contains(t, out, "Deleted week")
}

func TestStructureCmd_AttachResource(t *testing.T) {
	app := testApp(t)
	c := seedCourse(t, app, "Resourced", domain.StageAIStructure)
	_, err := executeCmd(t, app, "material", "add", "--title", "Body Scan", "--type", "audio")
	require.NoError(t, err)

	script := "add week\nadd task 1\nattach 1 1 Body Scan\nattach 1 1 missing\nshow\nsave\n"
	out, err := executeCmdWithInput(t, app, script, "course", "structure", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Error: material not found")
	assert.Contains(t, out, "↳ Body Scan")

	got := reload(t, app, c.ID)
	require.Len(t, got.Weeks, 1)
	require.Len(t, got.Weeks[0].Tasks, 1)
	assert.Len(t, got.Weeks[0].Tasks[0].ResourceIDs, 1)
}

func TestParseFieldAssignments(t *testing.T) {
	got, err := parseFieldAssignments([]string{"title=Morning", "check", "in", "TYPE=daily", "ai=be", "kind"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"title", "Morning check in"},
		{"type", "daily"},
		{"ai", "be kind"},
	}, got)

	_, err = parseFieldAssignments([]string{"Morning"})
	assert.ErrorContains(t, err, "expected field=value")

	got, err = parseFieldAssignments([]string{"notes=ratio", "x=y"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"notes", "ratio x=y"}}, got, "unknown keys are part of the value")
}
