// mercantile-mcp exposes the scraper's HTTP API as MCP tools over stdio, so
// agent frontends can pull account data without speaking HTTP themselves.
// It is a thin client of the running service; it never touches the browser.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the scraper API request model.
type scrapeRequest struct {
	Identifier   string `json:"identifier"`
	Password     string `json:"password"`
	SecurityCode string `json:"securityCode"`
	Mode         string `json:"mode,omitempty"`
}

// apiError mirrors the scraper API error detail.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// scrapeResponse mirrors the scraper API response model.
type scrapeResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

// saveResponse mirrors the mode=save response model.
type saveResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Filename string    `json:"filename"`
	Error    *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("MERCANTILE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("MERCANTILE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "MERCANTILE_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"mercantile-scraper",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_accounts",
		mcp.WithDescription("Log into the Mercantile banking portal and extract accounts, balances, debit authorizations, dashboard summary and loans. Returns the data inline as JSON."),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Portal login identifier"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Portal password"),
		),
		mcp.WithString("security_code",
			mcp.Required(),
			mcp.Description("Portal security code (third login field)"),
		),
	)
	s.AddTool(scrapeTool, handleScrape(apiURL, apiKey))

	saveTool := mcp.NewTool("scrape_accounts_to_file",
		mcp.WithDescription("Same as scrape_accounts, but the service persists the result to disk and only the filename is returned."),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Portal login identifier"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Portal password"),
		),
		mcp.WithString("security_code",
			mcp.Required(),
			mcp.Description("Portal security code (third login field)"),
		),
	)
	s.AddTool(saveTool, handleScrapeSave(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrape(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqBody, errResult := bindScrapeRequest(request, "json")
		if errResult != nil {
			return errResult, nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(apiErrMessage(resp.Error)), nil
		}
		return mcp.NewToolResultText(string(resp.Data)), nil
	}
}

func handleScrapeSave(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqBody, errResult := bindScrapeRequest(request, "save")
		if errResult != nil {
			return errResult, nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp saveResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(apiErrMessage(resp.Error)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("saved as %s", resp.Filename)), nil
	}
}

// bindScrapeRequest pulls the credential triple out of the tool call.
func bindScrapeRequest(request mcp.CallToolRequest, mode string) (*scrapeRequest, *mcp.CallToolResult) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return nil, mcp.NewToolResultError("identifier is required")
	}
	password, err := request.RequireString("password")
	if err != nil {
		return nil, mcp.NewToolResultError("password is required")
	}
	securityCode, err := request.RequireString("security_code")
	if err != nil {
		return nil, mcp.NewToolResultError("security_code is required")
	}
	return &scrapeRequest{
		Identifier:   identifier,
		Password:     password,
		SecurityCode: securityCode,
		Mode:         mode,
	}, nil
}

func apiErrMessage(e *apiError) string {
	if e == nil {
		return "scrape failed"
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// apiPost sends a POST request to the scraper API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
