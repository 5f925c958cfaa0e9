// kessanlens: TDnet earnings disclosure dashboard for the Tokyo
// Stock Exchange, with J-Quants financials, market snapshots, EDINET
// filing trends and AI-assisted contrarian analysis.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moriyak/kessanlens/internal/classify"
	"github.com/moriyak/kessanlens/internal/config"
	"github.com/moriyak/kessanlens/internal/dashboard"
	"github.com/moriyak/kessanlens/internal/llm"
	"github.com/moriyak/kessanlens/internal/provider"
	"github.com/moriyak/kessanlens/internal/providers"
	"github.com/moriyak/kessanlens/pkg/models"
	"github.com/moriyak/kessanlens/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kessanlens",
	Short: "kessanlens: TDnet決算開示ダッシュボード",
	Long: `kessanlens
A TDnet disclosure aggregator for the Tokyo Stock Exchange: per-company
earnings documents, standalone-quarter financials from J-Quants, market
snapshots, EDINET performance trends and contrarian AI analysis.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cacheCmd)
}

// newRegistry builds a provider registry from the loaded config.
func newRegistry() (*provider.Registry, error) {
	reg := provider.NewRegistry()
	err := providers.RegisterAllTo(reg, providers.Options{
		JQuantsAPIKey: cfg.JQuants.APIKey,
		EDINETAPIKey:  cfg.EDINET.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}
	return reg, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kessanlens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- List Command (daily dashboard) ---

var listCmd = &cobra.Command{
	Use:   "list [YYYYMMDD]",
	Short: "Show the merged disclosure dashboard for a day",
	Long: `Fetch the TDnet disclosure listing for a day (default: today),
fold it into one row per company, and join each row with
standalone-quarter financials from J-Quants and a market snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateForDashboard(); err != nil {
			return err
		}
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		params := provider.QueryParams{
			provider.ParamLimit: fmt.Sprintf("%d", cfg.Dashboard.ListingLimit),
		}
		if len(args) == 1 {
			if _, err := utils.ParseCompactDate(args[0]); err != nil {
				return fmt.Errorf("invalid date %q, want YYYYMMDD", args[0])
			}
			params[provider.ParamDate] = args[0]
		}

		result, err := reg.FetchWithFallback(cmd.Context(), provider.ModelDisclosureListing, params)
		if err != nil {
			return fmt.Errorf("fetch listing: %w", err)
		}
		records, _ := result.Data.([]models.DisclosureRecord)

		policy := classify.KeepOther
		if cfg.Dashboard.DropUncategorized {
			policy = classify.DropUnmatched
		}
		rows := dashboard.BuildRows(records, dashboard.RowOptions{
			Policy:        policy,
			DropEmptyRows: true,
		})
		if len(rows) == 0 {
			fmt.Println("本日の決算関連開示は見つかりませんでした。")
			return nil
		}

		fmt.Printf("決算関連開示: %d 社 (%d 件の開示から)\n\n", len(rows), len(records))
		merged := dashboard.NewJoiner(reg).Merge(cmd.Context(), rows)

		printDashboard(merged)

		if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
			if err := exportCSV(csvPath, merged); err != nil {
				return err
			}
			fmt.Printf("\nCSVを書き出しました: %s\n", csvPath)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("csv", "", "write the dashboard to a CSV file")
}

func printDashboard(rows []models.MergedRow) {
	fmt.Printf("%-6s %-24s %10s %8s %8s %8s %12s %12s\n",
		"コード", "会社名", "株価", "PER", "PBR", "利回り", "売上(百万)", "営利(百万)")
	for _, row := range rows {
		fmt.Printf("%-6s %-24s %10s %8s %8s %8s %12s %12s\n",
			row.CompanyCode,
			truncate(row.CompanyName, 24),
			cellFloat(row.Market.Price),
			cellFloat(row.Market.TrailingPE),
			cellFloat(row.Market.PriceToBook),
			cellFloat(row.Market.DividendYield),
			cellInt(row.Quarterly.Sales),
			cellInt(row.Quarterly.OperatingIncome),
		)
		for _, cat := range models.RowCategories {
			if url := row.Documents[cat]; url != "" {
				fmt.Printf("       %s: %s\n", cat.Label(), url)
			}
		}
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func cellFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func cellInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func exportCSV(path string, rows []models.MergedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := dashboard.WriteCSV(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// --- Company Command (single-company timeline) ---

var companyCmd = &cobra.Command{
	Use:   "company [code]",
	Short: "Show recent disclosures for one company",
	Long: `Scan the trailing disclosure window for one security code and
list every document the company published, classified by kind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := utils.NormalizeCode(args[0])
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		result, err := reg.FetchWithFallback(cmd.Context(), provider.ModelCompanyDisclosures, provider.QueryParams{
			provider.ParamCode:   code,
			provider.ParamWindow: fmt.Sprintf("%d", cfg.Dashboard.CompanyWindowDays),
		})
		if err != nil {
			return fmt.Errorf("fetch disclosures for %s: %w", code, err)
		}
		records, _ := result.Data.([]models.DisclosureRecord)
		if len(records) == 0 {
			fmt.Printf("%s の開示は直近 %d 日間に見つかりませんでした。\n", code, cfg.Dashboard.CompanyWindowDays)
			return nil
		}

		items := dashboard.Timeline(records)
		fmt.Printf("%s %s の開示 (%d 件)\n\n", code, items[0].CompanyName, len(items))
		for _, item := range items {
			fmt.Printf("%s [%s] %s\n", item.PublishedAt.Format("2006-01-02 15:04"), item.Category.Label(), item.Title)
			if item.URL != "" {
				fmt.Printf("    %s\n", item.URL)
			}
		}
		return nil
	},
}

// --- Resolve Command (name → code) ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [query]",
	Short: "Find security codes by company name or code prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		matches := dashboard.Resolve(cmd.Context(), reg, args[0])
		if len(matches) == 0 {
			fmt.Printf("%q に一致する銘柄は本日の開示に見つかりませんでした。\n", args[0])
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%s  %s\n", m.Code, m.Name)
		}
		return nil
	},
}

// --- Analyze Command (EDINET trend + Gemini) ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [code]",
	Short: "Run contrarian AI analysis on a company's earnings",
	Long: `Build a multi-year performance trend from EDINET securities
reports, combine it with the company's recent disclosures, and ask
Gemini for a contrarian read: what drove the bad numbers, what the
market may be missing, and a 5-level verdict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := utils.NormalizeCode(args[0])
		if cfg.EDINET.APIKey == "" {
			return fmt.Errorf("EDINET API key not set (EDINET_API_KEY)")
		}
		if cfg.Gemini.APIKey == "" {
			return fmt.Errorf("Gemini API key not set (GEMINI_API_KEY)")
		}
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		fmt.Printf("EDINET書類を検索中... (証券コード %s)\n", code)
		searchResult, err := reg.Fetch(cmd.Context(), provider.ModelFilingSearch, provider.QueryParams{
			provider.ParamCode:      code,
			provider.ParamYearsBack: fmt.Sprintf("%d", cfg.EDINET.YearsBack),
		})
		if err != nil {
			return fmt.Errorf("search filings: %w", err)
		}
		docs, _ := searchResult.Data.([]models.FilingDocument)
		if len(docs) == 0 {
			return fmt.Errorf("no EDINET filings found for %s", code)
		}
		fmt.Printf("%d 件の書類を発見。業績データを抽出中...\n", len(docs))

		financials := make(map[string]*models.FilingFinancials, len(docs))
		for _, doc := range docs {
			result, err := reg.Fetch(cmd.Context(), provider.ModelFilingContent, provider.QueryParams{
				provider.ParamDocID: doc.DocID,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", doc.DocID, err)
				continue
			}
			if fin, ok := result.Data.(*models.FilingFinancials); ok {
				financials[doc.DocID] = fin
			}
		}
		trend := dashboard.BuildTrend(docs, financials)
		if len(trend) == 0 {
			return fmt.Errorf("no financial data could be extracted for %s", code)
		}

		client, err := llm.NewGeminiClient(cfg.Gemini.APIKey, llm.WithModel(cfg.Gemini.Model))
		if err != nil {
			return err
		}
		fmt.Println("Gemini AIが分析中...")
		analysis, err := llm.Analyze(cmd.Context(), client, llm.AnalysisInput{
			CompanyCode: code,
			KessanText:  recentDisclosureText(cmd, reg, code),
			Trend:       trend,
		})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		fmt.Println()
		fmt.Println(analysis)
		return nil
	},
}

// recentDisclosureText renders the company's recent disclosures as
// context for the analysis prompt. Best effort: an empty string makes
// the prompt fall back to its placeholder.
func recentDisclosureText(cmd *cobra.Command, reg *provider.Registry, code string) string {
	result, err := reg.FetchWithFallback(cmd.Context(), provider.ModelCompanyDisclosures, provider.QueryParams{
		provider.ParamCode: code,
	})
	if err != nil {
		return ""
	}
	records, _ := result.Data.([]models.DisclosureRecord)
	var b strings.Builder
	for _, item := range dashboard.Timeline(records) {
		fmt.Fprintf(&b, "%s [%s] %s\n", item.PublishedAt.Format("2006-01-02"), item.Category.Label(), item.Title)
	}
	return b.String()
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  kessanlens System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:    %s (%s)\n", version, commit)
		fmt.Printf("  Time (JST): %s\n", utils.NowJST().Format("2006-01-02 15:04:05"))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Gemini model:     %s\n", cfg.Gemini.Model)
		fmt.Printf("    J-Quants quota:   %d calls / %ds\n", cfg.JQuants.RateCalls, cfg.JQuants.RatePeriodS)
		fmt.Printf("    EDINET lookback:  %d years\n", cfg.EDINET.YearsBack)
		fmt.Printf("    Listing limit:    %d\n", cfg.Dashboard.ListingLimit)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-20s %s\n", k.Name+":", status)
		}
		fmt.Println()

		reg, err := newRegistry()
		if err != nil {
			return err
		}
		fmt.Println("  Model coverage:")
		coverage := reg.ModelCoverage()
		for _, m := range provider.AllModels {
			provs := coverage[m]
			if len(provs) == 0 {
				fmt.Printf("    %-22s (no provider)\n", m)
				continue
			}
			fmt.Printf("    %-22s %s\n", m, strings.Join(provs, ", "))
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Println()
			fmt.Println("  Connectivity:")
			pingProviders(cmd, reg)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "ping each provider's upstream")
}

func pingProviders(cmd *cobra.Command, reg *provider.Registry) {
	infos := reg.List()
	results := make([]string, len(infos))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, info := range infos {
		i, name := i, info.Name
		g.Go(func() error {
			p, err := reg.Get(name)
			if err != nil {
				results[i] = err.Error()
				return nil
			}
			if err := p.Ping(ctx); err != nil {
				results[i] = fmt.Sprintf("unreachable: %v", err)
			} else {
				results[i] = "ok"
			}
			return nil
		})
	}
	g.Wait()

	for i, info := range infos {
		fmt.Printf("    %-12s %s\n", info.Name+":", results[i])
	}
}

// --- Cache Command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached provider responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		cleared := 0
		for _, info := range reg.List() {
			p, err := reg.Get(info.Name)
			if err != nil {
				continue
			}
			for _, m := range p.SupportedModels() {
				if f, ok := p.Fetcher(m).(interface{ FlushCache() }); ok {
					f.FlushCache()
					cleared++
				}
			}
		}
		fmt.Printf("cleared cache for %d fetchers\n", cleared)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
