package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"backend/internal/adminauth"
	"backend/internal/analytics"
	"backend/internal/db"
	"backend/internal/shopify"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type AdminHandler struct {
	ddb *dynamodb.Client
}

func NewAdminHandler(cfg aws.Config) *AdminHandler {
	return &AdminHandler{ddb: dynamodb.NewFromConfig(cfg)}
}

type AdminLoginRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

type StoreTokenRequest struct {
	Shop  string `json:"shop" validate:"required,max=256"`
	Token string `json:"token" validate:"required,max=512"`
}

func (h *AdminHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method

	switch req.RawPath {
	case "/api/admin/login":
		if method != "POST" {
			return errResp(405, "method not allowed")
		}
		return h.login(req)
	case "/api/admin/logout":
		if method != "POST" {
			return errResp(405, "method not allowed")
		}
		return h.logout()
	}

	// Everything below is session-gated.
	if _, err := adminauth.ValidateSessionToken(cookieValue(req, adminauth.CookieName)); err != nil {
		return errResp(401, "unauthorized")
	}

	switch req.RawPath {
	case "/api/admin/analytics/summary":
		if method != "GET" {
			return errResp(405, "method not allowed")
		}
		return h.summary(ctx, req)
	case "/api/admin/analytics/compare":
		if method != "GET" {
			return errResp(405, "method not allowed")
		}
		return h.compare(ctx, req)
	case "/api/admin/analytics/sales-chart":
		if method != "GET" {
			return errResp(405, "method not allowed")
		}
		return h.salesChart(ctx, req)
	case "/api/admin/analytics/events":
		if method != "GET" {
			return errResp(405, "method not allowed")
		}
		return h.listEvents(ctx, req)
	case "/api/admin/shopify/token":
		if method != "POST" {
			return errResp(405, "method not allowed")
		}
		return h.storeToken(ctx, req)
	default:
		return errResp(404, "not found")
	}
}

func (h *AdminHandler) login(req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in AdminLoginRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "password is required")
	}

	if err := adminauth.CheckPassword(in.Password); err != nil {
		log.Printf("admin: login rejected: %v", err)
		return errResp(401, "invalid password")
	}

	token, err := adminauth.GenerateSessionToken()
	if err != nil {
		log.Printf("admin: session token failed: %v", err)
		return errResp(500, "session setup failed")
	}

	resp, _ := jsonResp(200, map[string]any{"ok": true})
	resp.Cookies = []string{adminauth.SessionCookie(token)}
	return resp, nil
}

func (h *AdminHandler) logout() (events.APIGatewayV2HTTPResponse, error) {
	resp, _ := jsonResp(200, map[string]any{"ok": true})
	resp.Cookies = []string{adminauth.ExpiredSessionCookie()}
	return resp, nil
}

// parseWindow reads from/to query params (RFC3339 or YYYY-MM-DD), defaulting
// to the trailing 7 days.
func parseWindow(req events.APIGatewayV2HTTPRequest) (from, to time.Time, err error) {
	now := time.Now().UTC()
	to = now
	from = now.AddDate(0, 0, -7)

	parse := func(s string) (time.Time, error) {
		if t, e := time.Parse(time.RFC3339, s); e == nil {
			return t.UTC(), nil
		}
		t, e := time.Parse("2006-01-02", s)
		return t.UTC(), e
	}

	if s := strings.TrimSpace(req.QueryStringParameters["from"]); s != "" {
		if from, err = parse(s); err != nil {
			return
		}
	}
	if s := strings.TrimSpace(req.QueryStringParameters["to"]); s != "" {
		if to, err = parse(s); err != nil {
			return
		}
	}
	return
}

func (h *AdminHandler) summary(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	from, to, err := parseWindow(req)
	if err != nil {
		return errResp(400, "from/to must be RFC3339 or YYYY-MM-DD")
	}

	evs, err := analytics.QueryRange(ctx, h.ddb, db.EventsTableName(), from, to)
	if err != nil {
		log.Printf("admin: summary query failed: %v", err)
		return errResp(500, "summary query failed")
	}

	return jsonResp(200, analytics.Summarize(evs, from, to))
}

// comparePeriodDays parses the compare period query param as a day count,
// defaulting to a week.
func comparePeriodDays(s string) (int, error) {
	if s == "" {
		return 7, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 90 {
		return 0, fmt.Errorf("period must be 1..90 days")
	}
	return n, nil
}

func (h *AdminHandler) compare(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	days, err := comparePeriodDays(strings.TrimSpace(req.QueryStringParameters["period"]))
	if err != nil {
		return errResp(400, err.Error())
	}

	now := time.Now().UTC()
	curFrom := now.AddDate(0, 0, -days)
	prevFrom := now.AddDate(0, 0, -2*days)

	table := db.EventsTableName()

	curEvents, err := analytics.QueryRange(ctx, h.ddb, table, curFrom, now)
	if err != nil {
		log.Printf("admin: compare current query failed: %v", err)
		return errResp(500, "compare query failed")
	}
	prevEvents, err := analytics.QueryRange(ctx, h.ddb, table, prevFrom, curFrom)
	if err != nil {
		log.Printf("admin: compare previous query failed: %v", err)
		return errResp(500, "compare query failed")
	}

	cur := analytics.Summarize(curEvents, curFrom, now)
	prev := analytics.Summarize(prevEvents, prevFrom, curFrom)

	return jsonResp(200, analytics.Compare(cur, prev))
}

func (h *AdminHandler) salesChart(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	granularity := strings.TrimSpace(req.QueryStringParameters["granularity"])
	if granularity == "" {
		granularity = "week"
	}

	now := time.Now().UTC()
	from, to, err := analytics.SalesWindow(granularity, now)
	if err != nil {
		return errResp(400, err.Error())
	}

	evs, err := analytics.QueryRange(ctx, h.ddb, db.EventsTableName(), from, to)
	if err != nil {
		log.Printf("admin: sales chart query failed: %v", err)
		return errResp(500, "sales chart query failed")
	}

	points, err := analytics.BucketSales(evs, granularity, now)
	if err != nil {
		return errResp(400, err.Error())
	}
	return jsonResp(200, map[string]any{
		"granularity": granularity,
		"points":      points,
	})
}

func (h *AdminHandler) listEvents(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	from, to, err := parseWindow(req)
	if err != nil {
		return errResp(400, "from/to must be RFC3339 or YYYY-MM-DD")
	}

	limit := 50
	if s := strings.TrimSpace(req.QueryStringParameters["limit"]); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	items, nextToken, err := analytics.ListEvents(ctx, h.ddb, db.EventsTableName(), analytics.ListOptions{
		From:      from,
		To:        to,
		Name:      strings.TrimSpace(req.QueryStringParameters["name"]),
		Limit:     limit,
		NextToken: strings.TrimSpace(req.QueryStringParameters["nextToken"]),
	})
	if err != nil {
		log.Printf("admin: event list failed: %v", err)
		return errResp(500, "event list failed")
	}

	return jsonResp(200, map[string]any{
		"items":     items,
		"nextToken": nextToken,
	})
}

func (h *AdminHandler) storeToken(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in StoreTokenRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "shop and token are required")
	}

	if err := shopify.StoreAdminToken(ctx, h.ddb, strings.ToLower(strings.TrimSpace(in.Shop)), in.Token); err != nil {
		log.Printf("admin: token store failed: %v", err)
		return errResp(500, "token store failed")
	}
	return jsonResp(200, map[string]any{"ok": true})
}
