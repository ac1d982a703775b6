package karaf

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lambeaux/steadfast/internal/container"
	"github.com/Lambeaux/steadfast/internal/ir"
)

var _ container.Runtime = (*Client)(nil)

// listCommand lists every bundle with its location instead of its name.
const listCommand = "bundle:list -t 0 -l --no-format"

var bundleIDPattern = regexp.MustCompile(`Bundle ID:\s*(\d+)`)

// Bundle is one row of the bundle list.
type Bundle struct {
	ID       int64
	State    ir.ModuleState
	Location string
}

// Install runs bundle:install for location.
func (c *Client) Install(ctx context.Context, location string) (container.Handle, error) {
	out, err := c.Execute(ctx, "bundle:install "+location)
	if err != nil {
		return nil, err
	}
	m := bundleIDPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("karaf: no bundle id in bundle:install output %q", out)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("karaf: parse bundle id: %w", err)
	}
	return &bundle{client: c, id: id, location: location}, nil
}

// Lookup finds the bundle installed from location.
func (c *Client) Lookup(ctx context.Context, location string) (container.Handle, bool, error) {
	bundles, err := c.Bundles(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, b := range bundles {
		if SameLocation(b.Location, location) {
			return &bundle{client: c, id: b.ID, location: b.Location}, true, nil
		}
	}
	return nil, false, nil
}

// Bundles lists every installed bundle.
func (c *Client) Bundles(ctx context.Context) ([]Bundle, error) {
	out, err := c.Execute(ctx, listCommand)
	if err != nil {
		return nil, err
	}
	return ParseBundleList(out), nil
}

// ParseBundleList reads bundle:list output in any of the shell's table
// renderings (box drawing, pipes, or tabs). Header, separator and banner
// lines are skipped.
func ParseBundleList(out string) []Bundle {
	var bundles []Bundle
	for _, line := range strings.Split(out, "\n") {
		fields := splitRow(line)
		if len(fields) < 3 {
			continue
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		bundles = append(bundles, Bundle{
			ID:       id,
			State:    ir.ParseModuleState(fields[1]),
			Location: fields[len(fields)-1],
		})
	}
	return bundles
}

func splitRow(line string) []string {
	sep := "\t"
	switch {
	case strings.Contains(line, "│"):
		sep = "│"
	case strings.Contains(line, "|"):
		sep = "|"
	}
	parts := strings.Split(line, sep)
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, strings.TrimSpace(p))
	}
	return fields
}

// SameLocation compares module locations, treating file:/x and file:///x as
// the same file.
func SameLocation(a, b string) bool {
	if a == b {
		return true
	}
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil || ua.Scheme != "file" || ub.Scheme != "file" {
		return false
	}
	return path.Clean(filePath(ua)) == path.Clean(filePath(ub))
}

func filePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}

// bundle is a handle on one installed bundle.
type bundle struct {
	client   *Client
	id       int64
	location string
}

func (b *bundle) ID() int64        { return b.id }
func (b *bundle) Location() string { return b.location }

// State reads the bundle's row from the bundle list.
func (b *bundle) State(ctx context.Context) (ir.ModuleState, error) {
	bundles, err := b.client.Bundles(ctx)
	if err != nil {
		return ir.StateUnknown, err
	}
	for _, row := range bundles {
		if row.ID == b.id {
			return row.State, nil
		}
	}
	return ir.StateUninstalled, nil
}

func (b *bundle) Start(ctx context.Context) error  { return b.run(ctx, "bundle:start") }
func (b *bundle) Stop(ctx context.Context) error   { return b.run(ctx, "bundle:stop") }
func (b *bundle) Update(ctx context.Context) error { return b.run(ctx, "bundle:update") }

func (b *bundle) run(ctx context.Context, command string) error {
	_, err := b.client.Execute(ctx, fmt.Sprintf("%s %d", command, b.id))
	return err
}
