// propflow is a command-line front end for the estate agency workflow
// orchestrator. With no mode flags it drops into an interactive prompt.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rohanthewiz/logger"
	"propflow/config"
	"propflow/llm"
	"propflow/orchestrator"
	"propflow/platform/shutdown"
	"propflow/store"
)

func main() {
	query := flag.String("query", "", "process a single query and exit")
	ctxJSON := flag.String("context", "", "request context as a JSON object")
	planID := flag.String("plan", "", "pin a plan template id instead of classifying")
	approve := flag.Bool("approve", false, "gate plans behind an approval prompt")
	yes := flag.Bool("yes", false, "auto-approve gated plans instead of prompting")
	plans := flag.Bool("plans", false, "list the plan template catalogue")
	agentsList := flag.Bool("agents", false, "list the registered agents")
	historyN := flag.Int("history", 0, "show the n most recent runs")
	showMetrics := flag.Bool("metrics", false, "show run metrics")
	direct := flag.String("direct", "", "invoke one agent directly, as agent:action")
	dataDir := flag.String("data", "", "directory of entity CSVs (default: seeded demo data)")
	dbPath := flag.String("db", "", "DuckDB database path")
	templates := flag.String("templates", "", "YAML plan template overlay file")
	flag.Parse()

	config.Initialize()
	cfg := config.Get()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *templates != "" {
		cfg.TemplatesFile = *templates
	}
	ctx := shutdown.Watch(context.Background())

	st := openStore(cfg)
	defer st.Close()
	shutdown.Register("store", func(time.Duration) error { return st.Close() })

	var client llm.Client
	if cfg.OpenAIKey != "" {
		c, err := llm.NewOpenAI(llm.Options{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.Model,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			logger.LogErr(err, "language model unavailable, continuing offline")
		} else {
			client = c
			logger.Info("Language model ready", "model", cfg.Model)
		}
	} else {
		logger.Info("No OPENAI_API_KEY set, running offline")
	}

	var provider orchestrator.DecisionProvider = orchestrator.NewConsoleDecisionProvider()
	if *yes {
		provider = &orchestrator.StaticDecisionProvider{
			Decision: orchestrator.Decision{Action: orchestrator.DecisionApprove},
		}
	}

	orch := orchestrator.New(orchestrator.Options{
		Store:            st,
		LLM:              client,
		DecisionProvider: provider,
		ApprovalTimeout:  time.Duration(cfg.ApprovalTimeoutSec) * time.Second,
		MaxWorkers:       cfg.MaxWorkers,
		HistoryLimit:     cfg.HistoryLimit,
	})

	if cfg.TemplatesFile != "" {
		if _, err := orch.LoadTemplates(cfg.TemplatesFile); err != nil {
			logger.LogErr(err, "failed to load template overlay", "path", cfg.TemplatesFile)
		}
	}

	switch {
	case *plans:
		printPlans(orch)
	case *agentsList:
		printAgents(orch)
	case *historyN > 0:
		printHistory(orch, *historyN)
	case *direct != "":
		runDirect(ctx, orch, *direct, *ctxJSON)
	case *query != "":
		runQuery(ctx, orch, *query, *ctxJSON, *planID, *approve)
		if *showMetrics {
			printJSON(orch.Metrics())
		}
	case *showMetrics:
		printJSON(orch.Metrics())
	default:
		repl(ctx, orch, *approve)
	}
}

// openStore picks DuckDB-backed data when a CSV directory is configured,
// otherwise the seeded in-memory demo dataset.
func openStore(cfg *config.Config) store.Store {
	if cfg.DataDir != "" {
		st, err := store.OpenDuck(cfg.DBPath, cfg.DataDir)
		if err != nil {
			logger.LogErr(err, "failed to open database, using seeded demo data")
			return store.SeedDemo()
		}
		return st
	}
	logger.Info("Using seeded demo data")
	return store.SeedDemo()
}

func runQuery(ctx context.Context, orch *orchestrator.Orchestrator, query, ctxJSON, planID string, approve bool) {
	env := orch.ProcessQuery(ctx, orchestrator.Request{
		Query:           query,
		Context:         parseContext(ctxJSON),
		PlanID:          planID,
		RequireApproval: approve,
	})
	printJSON(env)
}

func runDirect(ctx context.Context, orch *orchestrator.Orchestrator, target, ctxJSON string) {
	name, action, found := strings.Cut(target, ":")
	if !found || name == "" || action == "" {
		fmt.Fprintln(os.Stderr, "direct invocation must look like agent:action")
		os.Exit(1)
	}
	result, err := orch.InvokeAgent(ctx, name, action, parseContext(ctxJSON))
	if err != nil {
		logger.LogErr(err, "direct invocation failed", "agent", name)
		os.Exit(1)
	}
	printJSON(result)
}

func parseContext(s string) map[string]interface{} {
	if s == "" {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		logger.Warn("Ignoring unparseable context JSON", "error", err.Error())
		return map[string]interface{}{}
	}
	return m
}

func printPlans(orch *orchestrator.Orchestrator) {
	for _, t := range orch.Templates() {
		gate := " "
		if t.ApprovalRecommended {
			gate = "*"
		}
		fmt.Printf("%-9s %s %-34s %-18s steps=%d\n", t.ID, gate, t.Name, t.WorkflowType, len(t.Steps))
	}
	fmt.Println("\n* approval recommended")
}

func printAgents(orch *orchestrator.Orchestrator) {
	for _, a := range orch.Agents() {
		fmt.Printf("%s  %-14s %s\n", a.Emoji, a.Name, a.Role)
	}
}

func printHistory(orch *orchestrator.Orchestrator, n int) {
	runs := orch.History(n)
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %-9s %-10s %s\n", r.CreatedAt.Format(time.RFC3339), r.PlanID, r.Status, r.Query)
	}
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to render output:", err)
		return
	}
	fmt.Println(string(out))
}

func repl(ctx context.Context, orch *orchestrator.Orchestrator, approve bool) {
	fmt.Println("propflow - estate agency workflow orchestrator")
	fmt.Println("Type a request, or /plans /agents /history /metrics /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print("\npropflow> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return
		case line == "/plans":
			printPlans(orch)
		case line == "/agents":
			printAgents(orch)
		case line == "/history":
			printHistory(orch, 10)
		case line == "/metrics":
			printJSON(orch.Metrics())
		default:
			runQuery(ctx, orch, line, "", "", approve)
		}
	}
}
