package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var errInconsistent = errors.New("ledger is inconsistent")

// client talks to the cashledger HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

// apiError is a non-2xx response.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Body)
}

func (c *client) do(method, path string, query url.Values, body any) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

// call performs a request and fails on any non-2xx status.
func (c *client) call(method, path string, query url.Values, body any) ([]byte, error) {
	data, status, err := c.do(method, path, query, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &apiError{Status: status, Body: string(data)}
	}
	return data, nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	c := &client{}

	rootCmd := &cobra.Command{
		Use:           "cashledger-cli",
		Short:         "Cashledger CLI tool",
		Long:          `A command line interface for interacting with the cashledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.baseURL = baseURL
			c.http = &http.Client{Timeout: timeout}
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the cashledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(ledgerCmd(c), balancesCmd(c), payrollCmd(c), reportsCmd(c))
	return rootCmd
}

func ledgerCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(c, cmd.OutOrStdout())
		},
	}

	var month string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listLedger(c, cmd.OutOrStdout(), month)
		},
	}
	listCmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (defaults to the current month)")

	cmd.AddCommand(consistencyCmd, listCmd)
	return cmd
}

func checkConsistency(c *client, out io.Writer) error {
	body, status, err := c.do(http.MethodGet, "/api/v1/ledger/consistency", nil, nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK:
		fmt.Fprintln(out, "Consistency check PASSED")
	case http.StatusConflict:
		fmt.Fprintln(out, "Consistency check FAILED")
	default:
		return &apiError{Status: status, Body: string(body)}
	}

	var report any
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := printJSON(out, report); err != nil {
		return err
	}

	if status == http.StatusConflict {
		return errInconsistent
	}
	return nil
}

type ledgerList struct {
	Period  string `json:"period"`
	Entries []struct {
		TransactionID   string `json:"transaction_id"`
		Source          string `json:"source"`
		TransactionType string `json:"transaction_type"`
		Description     string `json:"description"`
		Amount          string `json:"amount"`
		Date            string `json:"date"`
	} `json:"entries"`
}

func listLedger(c *client, out io.Writer, month string) error {
	query := url.Values{}
	if month != "" {
		query.Set("month", month)
	}

	body, err := c.call(http.MethodGet, "/api/v1/ledger", query, nil)
	if err != nil {
		return err
	}

	var list ledgerList
	if err := json.Unmarshal(body, &list); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Fprintf(out, "Period: %s\n", list.Period)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSOURCE\tTYPE\tDESCRIPTION\tAMOUNT")
	for _, e := range list.Entries {
		date := e.Date
		if len(date) > 10 {
			date = date[:10]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", date, e.Source, e.TransactionType, truncate(e.Description, 32), e.Amount)
	}
	return w.Flush()
}

func balancesCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Balance operations",
	}

	getCmd := &cobra.Command{
		Use:   "get <main|petty>",
		Short: "Show the balance of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(c, cmd.OutOrStdout(), http.MethodGet, "/api/v1/balances/"+url.PathEscape(args[0]), nil, nil)
		},
	}

	cmd.AddCommand(getCmd)
	return cmd
}

func payrollCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "Payroll operations",
	}

	var month string
	calculateCmd := &cobra.Command{
		Use:   "calculate",
		Short: "Create pending salaries for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"month": month}
			return printResponse(c, cmd.OutOrStdout(), http.MethodPost, "/api/v1/payroll/calculate", nil, body)
		},
	}
	calculateCmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM")
	_ = calculateCmd.MarkFlagRequired("month")

	payCmd := &cobra.Command{
		Use:   "pay <salary-id>",
		Short: "Pay a pending salary from the cash book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(c, cmd.OutOrStdout(), http.MethodPut, "/api/v1/payroll/"+url.PathEscape(args[0])+"/pay", nil, nil)
		},
	}

	cmd.AddCommand(calculateCmd, payCmd)
	return cmd
}

func reportsCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Financial statements",
	}

	for _, r := range []struct {
		use, short, path string
	}{
		{"profit-loss", "Show the profit and loss statement of a month", "/api/v1/reports/profit-loss"},
		{"position", "Show the financial position at the end of a month", "/api/v1/reports/position"},
	} {
		var year, month int
		path := r.path
		sub := &cobra.Command{
			Use:   r.use,
			Short: r.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				query := url.Values{}
				if year != 0 {
					query.Set("year", fmt.Sprint(year))
				}
				if month != 0 {
					query.Set("month", fmt.Sprint(month))
				}
				return printResponse(c, cmd.OutOrStdout(), http.MethodGet, path, query, nil)
			},
		}
		sub.Flags().IntVar(&year, "year", 0, "Year (defaults to the current year)")
		sub.Flags().IntVar(&month, "month", 0, "Month 1-12 (defaults to the current month)")
		cmd.AddCommand(sub)
	}

	return cmd
}

func printResponse(c *client, out io.Writer, method, path string, query url.Values, body any) error {
	data, err := c.call(method, path, query, body)
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return printJSON(out, v)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
