package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/luizancard/error-autopsy/internal/aggregate"
	"github.com/luizancard/error-autopsy/internal/handler"
	appI18n "github.com/luizancard/error-autopsy/internal/i18n"
	"github.com/luizancard/error-autopsy/internal/insight"
	"github.com/luizancard/error-autopsy/internal/model"
	"github.com/luizancard/error-autopsy/internal/store"
	"github.com/luizancard/error-autopsy/internal/xlsx"
)

const defaultUsername = "student"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "autopsy",
		Short: "Study performance tracker: log errors, derive metrics, find patterns",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), importCmd(), insightCmd(), userCreateCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `autopsy --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "autopsy.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Message language (en, pt)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = default endpoint)")
	f.String("llm-key", "", "API key for LLM analysis (empty disables it)")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's history as an Excel workbook",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "autopsy.db", "SQLite database path")
	f.StringP("user", "u", defaultUsername, "Username whose records to export")
	f.String("labels", "en", "Header language (en, pt)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Import records from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "autopsy.db", "SQLite database path")
	f.StringP("user", "u", defaultUsername, "Username to import records for")
	f.StringP("lang", "l", "en", "Message language (en, pt)")
	f.Bool("dry-run", false, "Validate the workbook without persisting anything")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func insightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Print the rule-based diagnosis for a user's error log",
		RunE:  runInsight,
	}
	f := cmd.Flags()
	f.String("db", "autopsy.db", "SQLite database path")
	f.StringP("user", "u", defaultUsername, "Username to diagnose")
	f.StringP("lang", "l", "en", "Message language (en, pt)")
	f.IntP("months", "m", -1, "Period filter: -1 all, 0 current month, n last n months")
	f.Bool("ai", false, "Run the LLM pattern analysis instead of the rule-based diagnosis")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = default endpoint)")
	f.String("llm-key", "", "API key for LLM analysis")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserCreate,
	}
	f := cmd.Flags()
	f.String("db", "autopsy.db", "SQLite database path")
	f.String("display-name", "", "Display name (defaults to the username)")
	f.String("password", "", "Password (or set AUTOPSY_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("AUTOPSY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("autopsy")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/autopsy")
	v.AddConfigPath("/etc/autopsy")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedDefaultUser(db); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var llmClient *insight.Client
	if key := v.GetString("llm-key"); key != "" {
		llmClient = insight.New(v.GetString("llm-url"), key, v.GetString("llm-model"))
		slog.Info("LLM analysis enabled", "model", v.GetString("llm-model"))
	} else {
		slog.Info("LLM analysis disabled, set --llm-key to enable")
	}

	h := handler.New(db, llmClient)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "lang", lang, "db", v.GetString("db"))
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	user, err := lookupUser(db, v.GetString("user"))
	if err != nil {
		return err
	}

	sessions, err := db.ListSessions(user.ID, store.SessionFilter{})
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	exams, err := db.ListExams(user.ID)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}
	records, err := db.ListErrors(user.ID, store.ErrorFilter{})
	if err != nil {
		return fmt.Errorf("list errors: %w", err)
	}

	set := xlsx.LabelsEnglish
	if v.GetString("labels") == "pt" {
		set = xlsx.LabelsPortuguese
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := xlsx.Export(w, records, sessions, exams, set); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	slog.Info("exported records", "user", user.Username,
		"sessions", len(sessions), "exams", len(exams), "errors", len(records))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	user, err := lookupUser(db, v.GetString("user"))
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sessions, err := db.ListSessions(user.ID, store.SessionFilter{})
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	exams, err := db.ListExams(user.ID)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	rep, err := xlsx.Import(f, user.ID, xlsx.Existing{Sessions: sessions, Exams: exams})
	if err != nil {
		return fmt.Errorf("import workbook: %w", err)
	}

	for _, re := range rep.RowErrors {
		slog.Warn("row rejected", "sheet", re.Sheet, "row", re.Row, "reason", re.Reason)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))
	summary := appI18n.Td(ctx, "ImportSummary", map[string]any{
		"Accepted": rep.Accepted,
		"Rejected": rep.Rejected,
	})

	if v.GetBool("dry-run") {
		fmt.Println("dry run: " + summary)
		return nil
	}

	if err := rep.Apply(db); err != nil {
		return fmt.Errorf("persist imported rows: %w", err)
	}
	fmt.Println(summary)
	return nil
}

func runInsight(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	user, err := lookupUser(db, v.GetString("user"))
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(lang))

	records, err := db.ListErrors(user.ID, store.ErrorFilter{})
	if err != nil {
		return fmt.Errorf("list errors: %w", err)
	}
	records = aggregate.FilterErrorsByMonths(records, v.GetInt("months"), time.Now())

	if v.GetBool("ai") {
		key := v.GetString("llm-key")
		if key == "" {
			return fmt.Errorf("LLM analysis needs --llm-key (or AUTOPSY_LLM_KEY)")
		}
		client := insight.New(v.GetString("llm-url"), key, v.GetString("llm-model"))
		analysis, err := client.AnalyzePatterns(ctx, insight.Summarize(records))
		if err != nil {
			return fmt.Errorf("pattern analysis: %w", err)
		}
		fmt.Println(analysis.Diagnosis)
		fmt.Println()
		fmt.Println(analysis.Mechanism)
		for _, step := range analysis.Protocol {
			fmt.Println("- " + step)
		}
		return nil
	}

	d := insight.Diagnose(ctx, records)
	fmt.Println(d.Message)
	if d.Tip != "" {
		fmt.Println(d.Tip)
	}
	return nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	username := args[0]
	displayName := v.GetString("display-name")
	if displayName == "" {
		displayName = username
	}

	var hash string
	if password := v.GetString("password"); password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}

	id, err := db.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	slog.Info("created user", "id", id, "username", username)
	return nil
}

func lookupUser(db *store.Store, username string) (*model.User, error) {
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", username, err)
	}
	if user == nil {
		return nil, fmt.Errorf("unknown user %q: create it with `autopsy user-create`", username)
	}
	return user, nil
}

// seedDefaultUser creates the single-tenant default account on first run.
func seedDefaultUser(db *store.Store) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = db.CreateUser(model.User{
		Username:    defaultUsername,
		DisplayName: "Student",
	})
	if err != nil {
		return err
	}
	slog.Info("seeded default user", "username", defaultUsername)
	return nil
}
