package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/UFUNY/LiUNA-Dispatch/internal/config"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
	"github.com/UFUNY/LiUNA-Dispatch/internal/geo"
	"github.com/UFUNY/LiUNA-Dispatch/internal/migrate"
	"github.com/UFUNY/LiUNA-Dispatch/internal/server"
	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
	"github.com/UFUNY/LiUNA-Dispatch/internal/sweeper"
)

var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch board CLI",
	Long: `Dispatch runs a construction crew dispatch board from the terminal.
Jobs are grouped by calendar date with today's work first; employees are
matched to jobs by availability, and double-booking on the same date is
caught before it happens. Jobs whose date has passed retire automatically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := store.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DISPATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(employeeCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(unassignCmd())
	rootCmd.AddCommand(pickerCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the dispatch board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				board := e.Board()
				if viper.GetBool("json") {
					return printJSON(board)
				}
				for _, g := range board.Groups {
					fmt.Println(g.Label)
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"ID", "Name", "Start", "Crew"})
					for _, j := range g.Jobs {
						tw.AppendRow(table.Row{j.ID, j.Name, j.StartTime, len(j.EmployeeIDs)})
					}
					tw.Render()
				}
				fmt.Printf("%d active, %d inactive\n", board.ActiveCount, board.InactiveCount)
				return nil
			})
		},
	}
	return cmd
}

func jobCmd() *cobra.Command {
	job := &cobra.Command{Use: "job", Short: "Manage jobs"}
	job.AddCommand(jobListCmd())
	job.AddCommand(jobCreateCmd())
	job.AddCommand(jobShowCmd())
	job.AddCommand(jobUpdateCmd())
	job.AddCommand(jobDeleteCmd())
	job.AddCommand(jobStatusCmd())
	job.AddCommand(jobLocateCmd())
	return job
}

func jobListCmd() *cobra.Command {
	var status, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				jobs := e.ListJobs(engine.JobFilters{Status: status, Query: query})
				if viper.GetBool("json") {
					return printJSON(jobs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Start", "Crew"})
				for _, j := range jobs {
					tw.AppendRow(table.Row{j.ID, j.Name, j.Status, j.StartTime, len(j.EmployeeIDs)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, inactive)")
	cmd.Flags().StringVar(&query, "q", "", "name search")
	return cmd
}

func jobCreateCmd() *cobra.Command {
	var name, description, address, scope, start string
	var clientName, clientPhone, clientEmail string
	var employees []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				j, err := e.CreateJob(ctx, engine.JobCreateOptions{
					Name:        name,
					Description: description,
					Address:     address,
					Scope:       scope,
					StartTime:   start,
					Client:      domain.Client{Name: clientName, Phone: clientPhone, Email: clientEmail},
					EmployeeIDs: employees,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&address, "address", "", "site address")
	cmd.Flags().StringVar(&scope, "scope", "", "scope of work")
	cmd.Flags().StringVar(&start, "start", "", "start time (YYYY-MM-DDTHH:MM)")
	cmd.Flags().StringVar(&clientName, "client-name", "", "client name")
	cmd.Flags().StringVar(&clientPhone, "client-phone", "", "client phone")
	cmd.Flags().StringVar(&clientEmail, "client-email", "", "client email")
	cmd.Flags().StringSliceVar(&employees, "employee", nil, "employee id (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func jobShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				j, err := e.GetJob(args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	return cmd
}

func jobUpdateCmd() *cobra.Command {
	var name, description, address, scope, start string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				opts := engine.JobUpdateOptions{ID: args[0]}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &description
				}
				if cmd.Flags().Changed("address") {
					opts.Address = &address
				}
				if cmd.Flags().Changed("scope") {
					opts.Scope = &scope
				}
				if cmd.Flags().Changed("start") {
					opts.StartTime = &start
				}
				j, err := e.UpdateJob(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&address, "address", "", "site address")
	cmd.Flags().StringVar(&scope, "scope", "", "scope of work")
	cmd.Flags().StringVar(&start, "start", "", "start time (YYYY-MM-DDTHH:MM, empty clears)")
	return cmd
}

func jobDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteJob(ctx, args[0])
			})
		},
	}
	return cmd
}

func jobStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <active|inactive>",
		Short: "Set job status",
		Long:  "Deactivating a job clears its start time and all assignments.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				j, err := e.SetJobStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	return cmd
}

func jobLocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <id>",
		Short: "Geocode a job's address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				j, notice, err := e.LocateJob(ctx, args[0])
				if err != nil {
					return err
				}
				if notice != "" {
					fmt.Fprintf(os.Stderr, "geocode fell back to the default location (%s)\n", notice)
				}
				return printJSONOrTable(j)
			})
		},
	}
	return cmd
}

func employeeCmd() *cobra.Command {
	emp := &cobra.Command{Use: "employee", Short: "Manage the roster"}
	emp.AddCommand(employeeListCmd())
	emp.AddCommand(employeeCreateCmd())
	emp.AddCommand(employeeShowCmd())
	emp.AddCommand(employeeUpdateCmd())
	emp.AddCommand(employeeDeleteCmd())
	emp.AddCommand(employeeAssignmentsCmd())
	return emp
}

func employeeListCmd() *cobra.Command {
	var classifications, statuses []string
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				emps := e.ListEmployees(engine.EmployeeFilters{
					Classifications: classifications,
					Statuses:        statuses,
					Query:           query,
				})
				if viper.GetBool("json") {
					return printJSON(emps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Class", "Status", "Can't work"})
				for _, emp := range emps {
					tw.AppendRow(table.Row{emp.ID, emp.Name, emp.Classification, emp.Status, strings.Join(emp.CantWorkDays, ",")})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&classifications, "classification", nil, "filter by classification (repeatable)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by status (repeatable)")
	cmd.Flags().StringVar(&query, "q", "", "search name, classification, or phone")
	return cmd
}

func employeeCreateCmd() *cobra.Command {
	var name, classification, status, email, phone, address string
	var cantWork, skills, certs []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				emp, err := e.CreateEmployee(ctx, engine.EmployeeCreateOptions{
					Name:           name,
					Classification: classification,
					Status:         status,
					Email:          email,
					Phone:          phone,
					Address:        address,
					CantWorkDays:   cantWork,
					Skills:         skills,
					Certs:          certs,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "employee name")
	cmd.Flags().StringVar(&classification, "classification", "", "classification (APP-1..APP-6, JM, FM)")
	cmd.Flags().StringVar(&status, "status", "", "status (active, inactive)")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone")
	cmd.Flags().StringVar(&address, "address", "", "address")
	cmd.Flags().StringSliceVar(&cantWork, "cant-work", nil, "weekday the employee cannot work (repeatable)")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "skill (repeatable)")
	cmd.Flags().StringSliceVar(&certs, "cert", nil, "certification (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func employeeShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				emp, err := e.GetEmployee(args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	return cmd
}

func employeeUpdateCmd() *cobra.Command {
	var name, classification, status, email, phone, address string
	var cantWork []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				opts := engine.EmployeeUpdateOptions{ID: args[0]}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("classification") {
					opts.Classification = &classification
				}
				if cmd.Flags().Changed("status") {
					opts.Status = &status
				}
				if cmd.Flags().Changed("email") {
					opts.Email = &email
				}
				if cmd.Flags().Changed("phone") {
					opts.Phone = &phone
				}
				if cmd.Flags().Changed("address") {
					opts.Address = &address
				}
				if cmd.Flags().Changed("cant-work") {
					opts.CantWorkDays = &cantWork
				}
				emp, err := e.UpdateEmployee(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "employee name")
	cmd.Flags().StringVar(&classification, "classification", "", "classification")
	cmd.Flags().StringVar(&status, "status", "", "status (active, inactive)")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone")
	cmd.Flags().StringVar(&address, "address", "", "address")
	cmd.Flags().StringSliceVar(&cantWork, "cant-work", nil, "weekday the employee cannot work (repeatable, empty clears)")
	return cmd
}

func employeeDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an employee",
		Long:  "Also removes the employee from every job's assignment list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteEmployee(ctx, args[0])
			})
		},
	}
	return cmd
}

func employeeAssignmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignments <id>",
		Short: "List an employee's assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				out, err := e.EmployeeAssignments(args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
	return cmd
}

func assignCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "assign <job-id> <employee-id>",
		Short: "Assign an employee to a job",
		Long:  "Fails with conflict details when the employee already works another job that date; pass --confirm to move them.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				j, err := e.Assign(ctx, engine.AssignOptions{
					JobID:      args[0],
					EmployeeID: args[1],
					Confirm:    confirm,
				})
				var conflict *engine.ConflictError
				if errors.As(err, &conflict) {
					return fmt.Errorf("%s; rerun with --confirm to move them", conflict.Error())
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "move the employee off a conflicting job")
	return cmd
}

func unassignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unassign <job-id> <employee-id>",
		Short: "Remove an employee from a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				j, err := e.Unassign(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	return cmd
}

func pickerCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "picker <job-id>",
		Short: "List eligible employees for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				entries, err := e.Picker(engine.PickerOptions{JobID: args[0], Query: query})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Class", "Conflict"})
				for _, entry := range entries {
					conflict := ""
					if entry.Conflict != nil {
						conflict = fmt.Sprintf("%s (%s)", entry.Conflict.JobName, entry.Conflict.DateKey)
					}
					tw.AppendRow(table.Row{entry.Employee.ID, entry.Employee.Name, entry.Employee.Classification, conflict})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query, "q", "", "search name, classification, or phone")
	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retire jobs whose date has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				n, err := e.Sweep(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%d job(s) deactivated\n", n)
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Activity log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				entries, err := e.Activity.Tail(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"When", "Type", "Name", "Detail"})
				for _, entry := range entries {
					when := time.UnixMilli(entry.TS).Local().Format("2006-01-02 15:04")
					tw.AppendRow(table.Row{when, entry.Type, entry.Name, entry.Detail})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage config"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default dispatch.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate dispatch.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.FromFile(config.Path(viper.GetString("workspace"))); err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			return withEngineLogged(cmd.Context(), log, func(ctx context.Context, e *engine.Engine) error {
				cfg := e.Config
				if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
					addr = cfg.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
					basePath = cfg.Server.BasePath
				}

				if cfg.Sweep.Enabled {
					sw := sweeper.New(e, log)
					if err := sw.Start(ctx); err != nil {
						return err
					}
					defer sw.Stop()
				}

				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Log: log})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				log.Info().Str("addr", addr).Str("base_path", basePath).Msg("serving dispatch API")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	return withEngineLogged(ctx, zerolog.New(os.Stderr).Level(zerolog.WarnLevel), fn)
}

func withEngineLogged(ctx context.Context, log zerolog.Logger, fn func(context.Context, *engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := store.Open(store.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	e, err := engine.New(ctx, store.NewSQLite(conn), cfg, log)
	if err != nil {
		return err
	}
	if cfg.Geocode.APIKey != "" {
		g, err := geo.NewGoogle(cfg.Geocode.APIKey)
		if err != nil {
			return err
		}
		e.Geocoder = g
		e.Router = g
	}
	return fn(ctx, e)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
