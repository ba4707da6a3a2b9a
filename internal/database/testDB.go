package database

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"

	m "FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported seeded users and jobs
var (
	TestRecruiter1 m.User
	TestRecruiter2 m.User
	TestApplicant1 m.User
	TestApplicant2 m.User
	TestNewcomer   m.User

	// Plain password shared by every seeded user
	TestSeedPassword = "SeedPass123!"

	TestJob1 m.Job
	TestJob2 m.Job
	TestJob3 m.Job
)

var fixtureSeq atomic.Int64

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {
	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := WithConnStr(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName))
	config.DBName = dbName

	db, err := NewDBInstance(config, zerolog.Nop())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts two recruiters, two applicants, one user who has
// not picked a role yet, and three open jobs.
func seedTestData(db *DBinstanceStruct) error {
	hashedPwd, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return err
	}

	end := 2022
	users := []m.User{
		{Name: "Rita Recruiter", Email: "recruiter1@example.com", UserType: m.UserTypeRecruiter, Bio: "We build payment systems", Contact: "+66 800 000 001"},
		{Name: "Ravi Recruiter", Email: "recruiter2@example.com", UserType: m.UserTypeRecruiter, Bio: "Data consulting", Contact: "+66 800 000 002"},
		{
			Name: "Alice Applicant", Email: "applicant1@example.com", UserType: m.UserTypeApplicant,
			Education: datatypes.JSONSlice[m.Education]{{InstitutionName: "Kasetsart University", StartYear: 2018, EndYear: &end}},
			Skills:    pq.StringArray{"go", "sql"},
		},
		{
			Name: "Bob Applicant", Email: "applicant2@example.com", UserType: m.UserTypeApplicant,
			Education: datatypes.JSONSlice[m.Education]{{InstitutionName: "Chiang Mai University", StartYear: 2019}},
			Skills:    pq.StringArray{"react"},
		},
		{Name: "Nina Newcomer", Email: "newcomer@example.com", UserType: m.UserTypeUnknown},
	}
	for i := range users {
		users[i].Password = hashedPwd
		if err := users[i].Validate(); err != nil {
			return err
		}
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}
	TestRecruiter1, TestRecruiter2 = users[0], users[1]
	TestApplicant1, TestApplicant2 = users[2], users[3]
	TestNewcomer = users[4]

	TestJob1 = CreateTestJob(db, TestRecruiter1.ID, 2, 10)
	TestJob2 = CreateTestJob(db, TestRecruiter1.ID, 1, 5)
	TestJob3 = CreateTestJob(db, TestRecruiter2.ID, 3, 20)
	return nil
}

// CreateTestJob inserts an open job posted by recruiter and panics on failure
func CreateTestJob(db *DBinstanceStruct, recruiter uuid.UUID, positions, maxApplicants int) m.Job {
	n := fixtureSeq.Add(1)
	now := time.Now().UTC()
	job := m.Job{
		Title:          "Test job " + strconv.FormatInt(n, 10),
		PostedByID:     recruiter,
		MaxApplicants:  maxApplicants,
		Positions:      positions,
		Salary:         int(1000 * n),
		Duration:       int(n % 7),
		JobType:        m.JobTypeFull,
		PostedOn:       now,
		Deadline:       now.Add(30 * 24 * time.Hour),
		SkillsRequired: pq.StringArray{"go"},
		IsActive:       true,
	}
	if err := job.Validate(); err != nil {
		panic(err)
	}
	if err := db.Store().CreateJob(context.Background(), &job); err != nil {
		panic(err)
	}
	return job
}

// CreateTestApplicant inserts a fresh applicant with TestSeedPassword and panics on failure
func CreateTestApplicant(db *DBinstanceStruct) m.User {
	n := fixtureSeq.Add(1)
	hashed, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		panic(err)
	}
	u := m.User{
		Name:      "Applicant " + strconv.FormatInt(n, 10),
		Email:     fmt.Sprintf("applicant-%d-%s@example.com", n, uuid.NewString()[:8]),
		Password:  hashed,
		UserType:  m.UserTypeApplicant,
		Education: datatypes.JSONSlice[m.Education]{{InstitutionName: "KMITL", StartYear: 2020}},
		Skills:    pq.StringArray{"go"},
	}
	if err := db.Store().CreateUser(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

// CreateTestRecruiter inserts a fresh recruiter with TestSeedPassword and panics on failure
func CreateTestRecruiter(db *DBinstanceStruct) m.User {
	n := fixtureSeq.Add(1)
	hashed, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		panic(err)
	}
	u := m.User{
		Name:     "Recruiter " + strconv.FormatInt(n, 10),
		Email:    fmt.Sprintf("recruiter-%d-%s@example.com", n, uuid.NewString()[:8]),
		Password: hashed,
		UserType: m.UserTypeRecruiter,
		Bio:      "Hiring",
		Contact:  "0123456789",
	}
	if err := db.Store().CreateUser(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

// CreateTestApplication inserts an application in the given status directly
func CreateTestApplication(db *DBinstanceStruct, applicant uuid.UUID, jobID uint, status m.ApplicationStatus) m.Application {
	app := m.Application{
		ApplicantID: applicant,
		JobID:       jobID,
		SOP:         "I would like to join",
		AppliedOn:   time.Now().UTC(),
		Status:      status,
	}
	if status == m.StatusAccepted {
		now := time.Now().UTC()
		app.JoinedOn = &now
	}
	if err := db.Store().CreateApplication(context.Background(), &app); err != nil {
		panic(err)
	}
	return app
}
