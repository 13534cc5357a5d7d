package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"optilist/optimistic"
	"optilist/pages"
	"optilist/record"
)

const helpText = `commands:
  home                         show the landing view
  <page>                       list posts | recipes | todos
  <page> add <a> | <b>         add (todos: add <text>)
  <page> edit <id> <a> | <b>   edit (todos: edit <id> <text>)
  <page> rm <id>               delete
  <page> refresh               reload from the server
  todos toggle <id>            flip completed
  help | quit`

// page is what the shell needs from one resource list.
type page interface {
	list(w io.Writer)
	add(ctx context.Context, args string) error
	edit(ctx context.Context, id int64, args string) error
	remove(ctx context.Context, id int64) error
	refresh(ctx context.Context) error
}

// listPage adapts an optimistic controller to the shell.
type listPage[R optimistic.Record[R]] struct {
	ctrl *optimistic.Controller[R]
	// fill sets the fields parsed from args on rec.
	fill    func(rec R, args string) R
	columns string
	row     func(R) string
}

func (p *listPage[R]) list(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tSTATE\t%s\n", p.columns)
	for _, e := range p.ctrl.Snapshot() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID(), e.State, p.row(e.Value))
	}
	tw.Flush()
}

func (p *listPage[R]) add(ctx context.Context, args string) error {
	var zero R
	_, err := p.ctrl.Create(ctx, p.fill(zero, args))
	return err
}

func (p *listPage[R]) edit(ctx context.Context, id int64, args string) error {
	return p.ctrl.Update(ctx, id, optimistic.EditorFunc[R](func(ctx context.Context, cur R) (R, bool, error) {
		if strings.TrimSpace(args) == "" {
			return cur, false, nil
		}
		return p.fill(cur, args), true, nil
	}))
}

func (p *listPage[R]) remove(ctx context.Context, id int64) error {
	return p.ctrl.Delete(ctx, id)
}

func (p *listPage[R]) refresh(ctx context.Context) error {
	return p.ctrl.Refresh(ctx)
}

// splitPair splits "a | b" into trimmed halves.
func splitPair(s string) (string, string) {
	a, b, _ := strings.Cut(s, "|")
	return strings.TrimSpace(a), strings.TrimSpace(b)
}

// Shell is a line-oriented front end over the page set.
type Shell struct {
	set   *pages.Set
	pages map[string]page
	out   io.Writer
	// live pages are rendered by Changed on every local change rather than
	// once when a command finishes.
	live bool
}

// NewShell builds a shell writing to out. With live set, the caller routes
// the set's change notifications to Changed.
func NewShell(set *pages.Set, out io.Writer, live bool) *Shell {
	return &Shell{
		set:  set,
		out:  out,
		live: live,
		pages: map[string]page{
			"posts": &listPage[record.Post]{
				ctrl: set.Posts.Controller,
				fill: func(p record.Post, args string) record.Post {
					p.Title, p.Body = splitPair(args)
					return p
				},
				columns: "TITLE\tBODY",
				row:     func(p record.Post) string { return p.Title + "\t" + p.Body },
			},
			"recipes": &listPage[record.Recipe]{
				ctrl: set.Recipes.Controller,
				fill: func(r record.Recipe, args string) record.Recipe {
					name, ingredients := splitPair(args)
					r.Name, r.Ingredients = name, record.Ingredients(ingredients)
					return r
				},
				columns: "NAME\tINGREDIENTS",
				row:     func(r record.Recipe) string { return r.Name + "\t" + string(r.Ingredients) },
			},
			"todos": &listPage[record.Todo]{
				ctrl: set.Todos.Controller,
				fill: func(t record.Todo, args string) record.Todo {
					t.Text = strings.TrimSpace(args)
					return t
				},
				columns: "DONE\tTODO",
				row: func(t record.Todo) string {
					mark := " "
					if t.Completed {
						mark = "x"
					}
					return "[" + mark + "]\t" + t.Text
				},
			},
		},
	}
}

// Run reads commands from in until EOF or quit.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			if err := s.Exec(ctx, line); err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

// Exec runs one command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch name {
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "home":
		fmt.Fprintln(s.out, s.set.Home)
		return nil
	}
	p, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}

	verb, args, _ := strings.Cut(strings.TrimSpace(rest), " ")
	switch verb {
	case "", "list":
		p.list(s.out)
		return nil
	case "add":
		return s.report(p.add(ctx, args), p)
	case "refresh":
		return s.report(p.refresh(ctx), p)
	}

	idArg, args, _ := strings.Cut(strings.TrimSpace(args), " ")
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("%s %s: invalid id %q", name, verb, idArg)
	}
	switch verb {
	case "edit":
		err := p.edit(ctx, id, args)
		if errors.Is(err, optimistic.ErrEditCanceled) {
			fmt.Fprintln(s.out, "edit canceled")
			return nil
		}
		return s.report(err, p)
	case "rm", "delete":
		return s.report(p.remove(ctx, id), p)
	case "toggle":
		if name != "todos" {
			return fmt.Errorf("toggle is only available on todos")
		}
		return s.report(s.set.Todos.Toggle(ctx, id), p)
	}
	return fmt.Errorf("unknown %s command %q", name, verb)
}

// Changed renders resource, showing pending records before the server
// answers and compensations as they are applied.
func (s *Shell) Changed(resource string) {
	if p, ok := s.pages[resource]; ok && s.live {
		p.list(s.out)
	}
}

// report shows the outcome of an operation. A remote failure is shown but the
// local state already reflects whatever compensation applied.
func (s *Shell) report(err error, p page) error {
	var f *optimistic.Failure
	if errors.As(err, &f) {
		fmt.Fprintf(s.out, "! %s %s failed, %s applied\n", f.Resource, f.Op, f.Compensation)
		err = nil
	}
	if err != nil {
		return err
	}
	if !s.live {
		p.list(s.out)
	}
	return nil
}
