package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"agentic-hr/backend/internal/config"
	"agentic-hr/backend/internal/logging"
	"agentic-hr/backend/internal/repository"
	"agentic-hr/backend/pkg/models"
)

var (
	configFile string
	domain     string
	orgName    string
	plan       string
	schemaFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the hiring platform database with a demo organization, job and workflow",
		RunE:  runSeed,
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.Flags().StringVar(&domain, "domain", "localhost", "Email domain of the seeded organization")
	rootCmd.Flags().StringVar(&orgName, "org-name", "Local Dev Org", "Name of the seeded organization")
	rootCmd.Flags().StringVar(&plan, "plan", string(models.PlanFree), "Subscription plan for the seeded organization")
	rootCmd.Flags().StringVar(&schemaFile, "schema", "", "Apply this schema file before seeding")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	if schemaFile != "" {
		ddl, err := os.ReadFile(schemaFile)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("Schema applied", "file", schemaFile)
	}

	store := repository.NewPostgresStore(pool)

	limits, ok := models.Plans[models.Plan(plan)]
	if !ok {
		return fmt.Errorf("unknown plan %q", plan)
	}

	// 1. Ensure organization exists
	org, err := store.GetOrganizationByDomain(ctx, domain)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("Creating organization", "domain", domain)
		org = &models.Organization{Name: orgName, Domain: domain}
		if err := store.CreateOrganization(ctx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		sub := &models.Subscription{
			OrganizationID:    org.ID,
			Plan:              models.Plan(plan),
			WorkflowsPerMonth: limits.WorkflowsPerMonth,
		}
		if err := store.CreateSubscription(ctx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to look up organization: %w", err)
	} else {
		logger.Info("Found existing organization", "id", org.ID)
	}

	// 2. Check for existing jobs to prevent duplicates
	existingJobs, err := store.ListJobs(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	existingMap := make(map[string]bool)
	for _, j := range existingJobs {
		existingMap[j.Title] = true
	}

	// 3. Create seed jobs
	jobs := []*models.Job{
		{
			Title: "Senior Backend Engineer",
			Role:  "backend engineer",
			Requirements: models.JobRequirements{
				MinExperience: 5,
				Location:      "Bengaluru",
				SalaryRange:   "30-45 LPA",
				Skills:        []string{"go", "postgres", "distributed systems"},
			},
			Status: models.JobOpen,
		},
		{
			Title: "Product Designer",
			Role:  "product designer",
			Requirements: models.JobRequirements{
				MinExperience: 3,
				Location:      "Remote",
				SalaryRange:   "18-25 LPA",
			},
			Status: models.JobDraft,
		},
	}

	var firstJob *models.Job
	for _, job := range jobs {
		if existingMap[job.Title] {
			logger.Info("Skipping existing job", "title", job.Title)
			continue
		}
		job.OrganizationID = org.ID
		job.CreatedBy = "seed-script"
		if err := store.CreateJob(ctx, job); err != nil {
			log.Printf("Failed to create job %s: %v", job.Title, err)
			continue
		}
		logger.Info("Seeded job", "title", job.Title, "code", job.JobCode)
		if firstJob == nil {
			firstJob = job
		}
	}

	// 4. Create a demo workflow for the first seeded job
	if firstJob != nil {
		wf := models.NewWorkflow(org.ID, firstJob.ID, "Workflow for "+firstJob.Title, models.WorkflowConfig{
			AutoAdvance:      false,
			NotifyOnComplete: true,
		})
		wf.CreatedBy = "seed-script"
		if err := store.CreateWorkflow(ctx, wf); err != nil {
			log.Printf("Failed to create workflow: %v", err)
		} else {
			logger.Info("Seeded workflow", "id", wf.ID, "steps", len(wf.Steps))
		}
	}

	logger.Info("Seeding complete!")
	return nil
}
