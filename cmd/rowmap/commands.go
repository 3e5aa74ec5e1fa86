package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"rowmap/internal/dsl"
	"rowmap/internal/orm"
)

type SyncCmd struct{}

func (c *SyncCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.Close()

	entities, err := s.entities()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx := context.Background()
	for _, k := range keys {
		repo := orm.For(s.engine, entities[k].Meta())
		created, err := repo.EnsureTableExists(ctx)
		if err != nil {
			return err
		}
		added, err := repo.EnsureColumnsExist(ctx)
		if err != nil {
			return err
		}
		switch {
		case created:
			fmt.Fprintf(g.stdout(), "%s: created\n", entities[k].TableName())
		case len(added) > 0:
			fmt.Fprintf(g.stdout(), "%s: added %s\n", entities[k].TableName(), strings.Join(added, ", "))
		default:
			fmt.Fprintf(g.stdout(), "%s: ok\n", entities[k].TableName())
		}
	}
	return nil
}

type FindCmd struct {
	Entity string `arg:"" help:"Entity or table name"`
	Where  string `short:"w" help:"Raw SQL filter, e.g. \"age > 30\""`
}

func (c *FindCmd) Run(g *Globals) error {
	return withRepo(g, c.Entity, func(repo *orm.Repository[dsl.Record]) error {
		recs, err := repo.Find(context.Background(), c.Where)
		if err != nil {
			return err
		}
		out := make([]map[string]any, 0, len(recs))
		for _, r := range recs {
			out = append(out, dsl.Flatten(r))
		}
		return printJSON(g, out)
	})
}

type FirstCmd struct {
	Entity string `arg:"" help:"Entity or table name"`
	Where  string `short:"w" help:"Raw SQL filter"`
}

func (c *FirstCmd) Run(g *Globals) error {
	return withRepo(g, c.Entity, func(repo *orm.Repository[dsl.Record]) error {
		rec, err := repo.FindFirst(context.Background(), c.Where)
		if err != nil {
			return err
		}
		return printJSON(g, dsl.Flatten(rec))
	})
}

type DeleteCmd struct {
	Entity string `arg:"" help:"Entity or table name"`
	ID     string `arg:"" name:"id" help:"Key value"`
}

func (c *DeleteCmd) Run(g *Globals) error {
	return withRepo(g, c.Entity, func(repo *orm.Repository[dsl.Record]) error {
		kf, err := repo.KeyField()
		if err != nil {
			return err
		}
		id, err := dsl.Coerce(kf.Type, c.ID)
		if err != nil {
			return fmt.Errorf("id %q: %w", c.ID, err)
		}
		rec := dsl.Record{}
		if err := kf.Set(&rec, id); err != nil {
			return err
		}
		n, err := repo.Delete(context.Background(), &rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.stdout(), "deleted %d\n", n)
		return nil
	})
}

func withRepo(g *Globals, name string, fn func(repo *orm.Repository[dsl.Record]) error) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.Close()

	entities, err := s.entities()
	if err != nil {
		return err
	}
	key, ok := dsl.Lookup(entities, name)
	if !ok {
		return fmt.Errorf("unknown entity %q", name)
	}
	return fn(orm.For(s.engine, entities[key].Meta()))
}

func printJSON(g *Globals, v any) error {
	enc := json.NewEncoder(g.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
