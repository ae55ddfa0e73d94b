package admin

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/orm"
)

// HeaderFunc renders the header of a row.
type HeaderFunc func(ctx context.Context, row *orm.Row) string

// HeaderOpts configures the header of a controller.
type HeaderOpts struct {
	// Label replaces the controller label.
	Label string
	// NoLabel renders headers without the label.
	NoLabel bool
	// Func renders the header instead of the snippets.
	Func HeaderFunc
}

// HOpts configures a single header rendering.
type HOpts struct {
	// Label replaces the controller label.
	Label string
	// Join separates the label and the header. Defaults to ", ".
	// It is HTML escaped like the parts.
	Join string
	// Length truncates the result, zero means no limit.
	Length int
}

// Header sets how rows are named in titles and association lists.
// Snippets are column names or strings with #column and
// #assoc.column tokens:
//
//	c.Header(admin.HeaderOpts{}, "#title", " by #author.name")
//
// A snippet whose tokens resolve to blank values is left out.
func (c *Controller) Header(opts HeaderOpts, snippets ...string) *Controller {
	c.header = headerDef{
		snippets: snippets,
		fn:       opts.Func,
		label:    opts.Label,
		noLabel:  opts.NoLabel,
	}
	return c
}

// H renders the header of row joined with the label. Use HParts to get
// the parts without joining them.
func (c *Controller) H(ctx context.Context, row *orm.Row, opts HOpts) string {
	parts := c.HParts(ctx, row, opts)
	join := opts.Join
	if join == "" {
		join = ", "
	}
	s := strings.Join(parts, html.EscapeString(join))
	if opts.Length > 0 {
		if rs := []rune(s); len(rs) > opts.Length {
			s = string(rs[:opts.Length]) + "..."
		}
	}
	return s
}

// HParts returns the label and the header of row, leaving out empty
// parts. Every part is HTML escaped.
func (c *Controller) HParts(ctx context.Context, row *orm.Row, opts HOpts) []string {
	var parts []string
	switch {
	case opts.Label != "":
		parts = append(parts, html.EscapeString(opts.Label))
	case !c.header.noLabel:
		parts = append(parts, html.EscapeString(c.Label(false)))
	}
	if h := c.headerOf(ctx, row); h != "" {
		parts = append(parts, html.EscapeString(h))
	}
	return parts
}

func (c *Controller) headerOf(ctx context.Context, row *orm.Row) string {
	if c.header.fn != nil {
		return c.header.fn(ctx, row)
	}
	if row == nil {
		return ""
	}
	if len(c.header.snippets) == 0 {
		if len(c.columns) == 0 {
			return ""
		}
		return display(row.Get(c.columns[0].name))
	}
	var b strings.Builder
	for _, s := range c.header.snippets {
		b.WriteString(c.snippet(ctx, s, row))
	}
	return b.String()
}

var tokenRE = regexp.MustCompile(`#([A-Za-z_]\w*)(?:\.([A-Za-z_]\w*))?`)

// snippet resolves the tokens of s against row. A plain name is a
// single token.
func (c *Controller) snippet(ctx context.Context, s string, row *orm.Row) string {
	if !strings.Contains(s, "#") {
		return c.token(ctx, row, s, "")
	}
	blank := false
	out := tokenRE.ReplaceAllStringFunc(s, func(tok string) string {
		m := tokenRE.FindStringSubmatch(tok)
		v := c.token(ctx, row, m[1], m[2])
		if v == "" {
			blank = true
		}
		return v
	})
	if blank {
		return ""
	}
	return out
}

// token returns the value of a column of row, or of a column of the row
// a belongs-to association points at.
func (c *Controller) token(ctx context.Context, row *orm.Row, name, col string) string {
	if col == "" {
		return display(row.Get(name))
	}
	a := c.Assoc(name)
	if a == nil || a.Type != BelongsTo {
		return ""
	}
	id := row.Get(a.LocalKey)
	if id == nil {
		return ""
	}
	remote, err := a.remoteORM.First(ctx, orm.Eql(a.remoteMatchKey(), id))
	if err != nil {
		return ""
	}
	return display(remote.Get(col))
}

// display formats a raw value for titles.
func display(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case time.Time:
		return v.Format(orm.DateTimeLayout)
	default:
		return fmt.Sprint(v)
	}
}

// optsHeader names opts rows by their titleized name.
func optsHeader(_ context.Context, row *orm.Row) string {
	if row == nil {
		return ""
	}
	return inflector.Titleize(display(row.Get("name")))
}
