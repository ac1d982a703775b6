package karaf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/testutil"
)

// fakeRunner answers shell commands from a table and records every call.
type fakeRunner struct {
	replies map[string][]reply
	calls   [][]string
}

type reply struct {
	out string
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{replies: make(map[string][]reply)}
}

// on queues replies for command; the last one repeats.
func (f *fakeRunner) on(command string, replies ...reply) {
	f.replies[command] = append(f.replies[command], replies...)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	command := args[len(args)-1]
	queue, ok := f.replies[command]
	if !ok || len(queue) == 0 {
		return nil, fmt.Errorf("unexpected command %q", command)
	}
	r := queue[0]
	if len(queue) > 1 {
		f.replies[command] = queue[1:]
	}
	return []byte(r.out), r.err
}

func (f *fakeRunner) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c[len(c)-1]
	}
	return out
}

func newTestClient(t *testing.T, runner Runner) *Client {
	t.Helper()
	c, err := New(Options{
		Client:   "/opt/karaf/bin/client",
		Host:     "localhost",
		Port:     8101,
		User:     "karaf",
		Password: "secret",
		Runner:   runner,
	})
	require.NoError(t, err)
	return c
}

func TestExecuteKeyFileReplacesPassword(t *testing.T) {
	runner := newFakeRunner()
	runner.on("feature:list", reply{out: "ok\n"})
	c, err := New(Options{
		Client:   "/opt/karaf/bin/client",
		User:     "karaf",
		Password: "secret",
		KeyFile:  "/home/karaf/.ssh/id_rsa",
		Runner:   runner,
	})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), "feature:list")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{
		"/opt/karaf/bin/client",
		"-u", "karaf", "-k", "/home/karaf/.ssh/id_rsa",
		"feature:list",
	}}, runner.calls)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestExecutePassesConnectionFlags(t *testing.T) {
	runner := newFakeRunner()
	runner.on("feature:list", reply{out: "ok\n"})
	c := newTestClient(t, runner)

	out, err := c.Execute(context.Background(), "feature:list")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, [][]string{{
		"/opt/karaf/bin/client",
		"-h", "localhost", "-a", "8101", "-u", "karaf", "-p", "secret",
		"feature:list",
	}}, runner.calls)
}

func TestExecuteSurfacesShellErrors(t *testing.T) {
	runner := newFakeRunner()
	runner.on("bundle:start 9", reply{out: "Error executing command: Bundle 9 not found\n", err: errors.New("exit status 1")})
	c := newTestClient(t, runner)

	_, err := c.Execute(context.Background(), "bundle:start 9")
	var serr *ShellError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Bundle 9 not found", serr.Output)
	assert.Equal(t, "bundle:start 9", serr.Command)
}

func TestExecuteShellErrorWithZeroExit(t *testing.T) {
	runner := newFakeRunner()
	runner.on("bundle:stop 9", reply{out: "Error executing command: Bundle 9 is invalid"})
	c := newTestClient(t, runner)

	_, err := c.Execute(context.Background(), "bundle:stop 9")
	var serr *ShellError
	require.ErrorAs(t, err, &serr)
	assert.Nil(t, serr.Err)
}

func TestInstallFeatureSuccess(t *testing.T) {
	runner := newFakeRunner()
	runner.on("feature:install test-io/2.19.11", reply{})
	c := newTestClient(t, runner)

	assert.True(t, c.InstallFeature(context.Background(), "test-io/2.19.11").OK())
}

func TestInstallFeatureFailureCarriesDiagnostic(t *testing.T) {
	runner := newFakeRunner()
	runner.on("feature:install test-io", reply{
		out: errorPrefix + " " + testutil.SampleFailure + "\n",
		err: errors.New("exit status 1"),
	})
	c := newTestClient(t, runner)

	outcome := c.InstallFeature(context.Background(), "test-io")
	assert.False(t, outcome.OK())
	assert.Equal(t, testutil.SampleFailure, outcome.Message())
}

func TestInstallFeatureClientFailure(t *testing.T) {
	c := newTestClient(t, newFakeRunner())

	outcome := c.InstallFeature(context.Background(), "test-io")
	assert.False(t, outcome.OK())
	assert.Contains(t, outcome.Message(), "unexpected command")
}

func TestInstallParsesBundleID(t *testing.T) {
	runner := newFakeRunner()
	runner.on("bundle:install file:///tmp/tryinstall/mock.jar", reply{out: "Bundle ID: 231\n"})
	c := newTestClient(t, runner)

	h, err := c.Install(context.Background(), "file:///tmp/tryinstall/mock.jar")
	require.NoError(t, err)
	assert.Equal(t, int64(231), h.ID())
	assert.Equal(t, "file:///tmp/tryinstall/mock.jar", h.Location())
}

func TestInstallWithoutBundleID(t *testing.T) {
	runner := newFakeRunner()
	runner.on("bundle:install file:///x.jar", reply{out: "something else"})
	c := newTestClient(t, runner)

	_, err := c.Install(context.Background(), "file:///x.jar")
	assert.Error(t, err)
}

const boxList = `START LEVEL 100 , List Threshold: 0
 ID │ State    │ Lvl │ Version  │ Location
────┼──────────┼─────┼──────────┼──────────────────────────────────
 12 │ Active   │  80 │ 2.6.0    │ mvn:commons-lang/commons-lang/2.6
231 │ Resolved │  80 │ 0.0.0    │ file:/tmp/tryinstall/mock.jar
`

const tabList = "12\tActive\t80\t2.6.0\tmvn:commons-lang/commons-lang/2.6\n" +
	"231\tInstalled\t80\t0.0.0\tfile:/tmp/tryinstall/mock.jar\n"

func TestParseBundleList(t *testing.T) {
	want := []Bundle{
		{ID: 12, State: ir.StateActive, Location: "mvn:commons-lang/commons-lang/2.6"},
		{ID: 231, State: ir.StateResolved, Location: "file:/tmp/tryinstall/mock.jar"},
	}
	assert.Equal(t, want, ParseBundleList(boxList))

	piped := strings.ReplaceAll(boxList, "│", "|")
	assert.Equal(t, want, ParseBundleList(piped))

	tabbed := ParseBundleList(tabList)
	require.Len(t, tabbed, 2)
	assert.Equal(t, ir.StateInstalled, tabbed[1].State)
}

func TestParseBundleListEmpty(t *testing.T) {
	assert.Empty(t, ParseBundleList(""))
	assert.Empty(t, ParseBundleList("START LEVEL 100 , List Threshold: 0\n"))
}

func TestSameLocation(t *testing.T) {
	assert.True(t, SameLocation("file:/tmp/a/mock.jar", "file:///tmp/a/mock.jar"))
	assert.True(t, SameLocation("file:///tmp/a/../a/mock.jar", "file:///tmp/a/mock.jar"))
	assert.False(t, SameLocation("file:///tmp/a/mock.jar", "file:///tmp/b/mock.jar"))
	assert.False(t, SameLocation("mvn:a/b/1", "mvn:a/b/2"))
	assert.True(t, SameLocation("mvn:a/b/1", "mvn:a/b/1"))
}

func TestLookupAndState(t *testing.T) {
	runner := newFakeRunner()
	runner.on(listCommand, reply{out: boxList})
	c := newTestClient(t, runner)
	ctx := context.Background()

	h, found, err := c.Lookup(ctx, "file:///tmp/tryinstall/mock.jar")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(231), h.ID())

	state, err := h.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.StateResolved, state)

	_, found, err = c.Lookup(ctx, "file:///elsewhere/mock.jar")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStateOfRemovedBundle(t *testing.T) {
	runner := newFakeRunner()
	runner.on("bundle:install file:///x.jar", reply{out: "Bundle ID: 99"})
	runner.on(listCommand, reply{out: boxList})
	c := newTestClient(t, runner)
	ctx := context.Background()

	h, err := c.Install(ctx, "file:///x.jar")
	require.NoError(t, err)
	state, err := h.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.StateUninstalled, state)
}

func TestLifecycleCommands(t *testing.T) {
	runner := newFakeRunner()
	runner.on(listCommand, reply{out: boxList})
	runner.on("bundle:stop 231", reply{})
	runner.on("bundle:update 231", reply{})
	runner.on("bundle:start 231", reply{})
	c := newTestClient(t, runner)
	ctx := context.Background()

	h, found, err := c.Lookup(ctx, "file:///tmp/tryinstall/mock.jar")
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, h.Stop(ctx))
	require.NoError(t, h.Update(ctx))
	require.NoError(t, h.Start(ctx))
	assert.Equal(t, []string{listCommand, "bundle:stop 231", "bundle:update 231", "bundle:start 231"}, runner.commands())
}
