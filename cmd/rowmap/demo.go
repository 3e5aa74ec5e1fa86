package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rowmap/internal/meta"
	"rowmap/internal/orm"
)

type User struct {
	ID               int64
	Username         string
	Password         string
	Age              int
	RegistrationDate time.Time
	Salary           float64
}

var userEntity = meta.Define("users",
	meta.Int("id", func(u *User) *int64 { return &u.ID }, meta.Key()),
	meta.Text("username", func(u *User) *string { return &u.Username }),
	meta.Text("password", func(u *User) *string { return &u.Password }),
	meta.Int("age", func(u *User) *int { return &u.Age }),
	meta.Date("registrationDate", func(u *User) *time.Time { return &u.RegistrationDate },
		meta.ColumnName("registration_date")),
	meta.Decimal("salary", func(u *User) *float64 { return &u.Salary }),
)

type DemoCmd struct{}

func (c *DemoCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.Close()
	return runDemo(context.Background(), s.engine, g)
}

// runDemo: вставка, поиск, удаление и повторный поиск одного пользователя.
func runDemo(ctx context.Context, engine *orm.Engine, g *Globals) error {
	users := orm.For(engine, userEntity)
	out := g.stdout()

	u := User{
		Username:         "Ivan",
		Password:         "dsdf3r3",
		Age:              35,
		RegistrationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Salary:           4555.0,
	}
	if _, err := users.Persist(ctx, &u); err != nil {
		return err
	}
	fmt.Fprintf(out, "persisted id=%d\n", u.ID)

	found, err := users.FindFirst(ctx, fmt.Sprintf("username = 'Ivan' AND id = %d", u.ID))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "found %s age=%d registered=%s\n",
		found.Username, found.Age, found.RegistrationDate.Format("2006-01-02"))

	n, err := users.Delete(ctx, &found)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %d\n", n)

	_, err = users.FindFirst(ctx, fmt.Sprintf("id = %d", u.ID))
	if !errors.Is(err, orm.ErrNotFound) {
		return fmt.Errorf("expected not found after delete, got %v", err)
	}
	fmt.Fprintln(out, "not found after delete")
	return nil
}
