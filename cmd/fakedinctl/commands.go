package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/config"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

// Context is handed to every command's Run
type Context struct {
	DB     config.DB
	Logger zerolog.Logger
	In     io.Reader
	Out    io.Writer

	// shared is used instead of connecting when set, and never closed
	shared *database.DBinstanceStruct
}

func (c *Context) connect() (*database.DBinstanceStruct, func(), error) {
	if c.shared != nil {
		return c.shared, func() {}, nil
	}
	db, err := database.NewDBInstance(database.ConfigFrom(c.DB), c.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

// MigrateCmd applies the schema
type MigrateCmd struct{}

// Run migrates the database
func (MigrateCmd) Run(c *Context) error {
	db, release, err := c.connect()
	if err != nil {
		return err
	}
	defer release()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(c.Out, "Schema is up to date.")
	return nil
}

// CleanDBCmd drops every table after confirmation
type CleanDBCmd struct {
	Yes bool `help:"Skip the confirmation prompt."`
}

// Run drops all tables
func (cmd CleanDBCmd) Run(c *Context) error {
	if !cmd.Yes {
		fmt.Fprintln(c.Out, "WARNING: This command will DROP ALL TABLES in the 'public' schema of your database.")
		fmt.Fprint(c.Out, "This action is irreversible. Do you want to continue? (yes/no): ")
		input, err := bufio.NewReader(c.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(input)) != "yes" {
			fmt.Fprintln(c.Out, "Operation cancelled.")
			return nil
		}
	}

	db, release, err := c.connect()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := db.DropAll(ctx); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	fmt.Fprintln(c.Out, "All tables dropped.")
	return nil
}

// SeedCmd inserts demo data. Users that already exist are left alone.
type SeedCmd struct {
	Password string `help:"Password for every seeded user." default:"password123"`
	Jobs     int    `help:"Jobs to post per seeded recruiter." default:"3"`
}

var seedRecruiters = []model.User{
	{Name: "Ada Recruiter", Email: "ada@fakedin.test", Bio: "Hiring gophers since 2012", Contact: "+66 800 000 001"},
	{Name: "Bob Recruiter", Email: "bob@fakedin.test", Bio: "Part time roles for students", Contact: "+66 800 000 002"},
}

var seedApplicants = []model.User{
	{Name: "Cara Applicant", Email: "cara@fakedin.test", Skills: []string{"go", "sql"}},
	{Name: "Dan Applicant", Email: "dan@fakedin.test", Skills: []string{"python", "docker"}},
	{Name: "Eve Applicant", Email: "eve@fakedin.test", Skills: []string{"react", "go"}},
}

var seedJobTypes = []model.JobType{model.JobTypeFull, model.JobTypePart, model.JobTypeHome}

// Run seeds users and jobs
func (cmd SeedCmd) Run(c *Context) error {
	if len(cmd.Password) < 8 {
		return errors.New("password should be at least 8 characters")
	}
	db, release, err := c.connect()
	if err != nil {
		return err
	}
	defer release()

	ctx := context.Background()
	store := db.Store()
	engine := lifecycle.NewEngine(store, lifecycle.WithLogger(c.Logger))

	hashed, err := utilities.HashPassword(cmd.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var users, jobs int
	for _, tmpl := range seedApplicants {
		u := tmpl
		u.UserType = model.UserTypeApplicant
		u.Password = hashed
		u.Education = []model.Education{{InstitutionName: "Kasetsart University", StartYear: 2021}}
		created, err := createIfMissing(ctx, store, &u)
		if err != nil {
			return err
		}
		if created {
			users++
		}
	}

	for _, tmpl := range seedRecruiters {
		u := tmpl
		u.UserType = model.UserTypeRecruiter
		u.Password = hashed
		created, err := createIfMissing(ctx, store, &u)
		if err != nil {
			return err
		}
		if !created {
			continue
		}
		users++

		actor := lifecycle.Actor{ID: u.ID, Role: model.UserTypeRecruiter}
		for i := 0; i < cmd.Jobs; i++ {
			_, err := engine.CreateJob(ctx, actor, lifecycle.JobDraft{
				Title:          fmt.Sprintf("%s opening #%d", strings.Fields(u.Name)[0], i+1),
				MaxApplicants:  10,
				Positions:      1 + i%3,
				Salary:         15000 + 5000*i,
				Duration:       1 + i%6,
				JobType:        seedJobTypes[i%len(seedJobTypes)],
				Deadline:       engine.Now().Add(time.Duration(7+i) * 24 * time.Hour),
				SkillsRequired: []string{"go"},
			})
			if err != nil {
				return fmt.Errorf("post job for %s: %w", u.Email, err)
			}
			jobs++
		}
	}

	c.Logger.Info().Int("users", users).Int("jobs", jobs).Msg("seed complete")
	fmt.Fprintf(c.Out, "Seeded %d users and %d jobs.\n", users, jobs)
	return nil
}

func createIfMissing(ctx context.Context, store *database.Store, u *model.User) (bool, error) {
	err := store.CreateUser(ctx, u)
	if err == nil {
		return true, nil
	}
	if apperror.RuleOf(err) == apperror.RuleDuplicateEmail {
		return false, nil
	}
	return false, fmt.Errorf("create %s: %w", u.Email, err)
}
