// Package pocketbase is a small REST client for the PocketBase
// collections API, covering the operations the extraction pipeline
// needs: password auth, filtered listing, and record writes.
package pocketbase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hkracing-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pocketbase")

type Config struct {
	// URL is the PocketBase base URL, e.g. "http://127.0.0.1:8090".
	URL string `json:"url"`
	// Identity is the auth email for the users collection.
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// Client talks to one PocketBase instance. methods are safe to call
// concurrently after Authenticate.
type Client struct {
	http     *resty.Client
	identity string
	password string
}

func New(cfg Config) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.URL, "/"))
	client.SetTimeout(time.Second * 30)
	client.SetHeader("content-type", "application/json")

	telemetry.InstrumentResty(client, "pocketbase/http")

	return &Client{
		http:     client,
		identity: cfg.Identity,
		password: cfg.Password,
	}
}

// Record is one PocketBase record as returned by the API.
type Record map[string]any

func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) check(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if res.IsError() {
		var body apiError
		_ = json.Unmarshal(res.Body(), &body)
		if body.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)",
				res.Request.Method, res.Request.URL, body.Message, res.StatusCode())
		}
		return fmt.Errorf("%s %s: status %d",
			res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return nil
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate logs in against the users collection and applies the
// returned bearer token to all subsequent requests.
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	var auth authResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"identity": c.identity,
			"password": c.password,
		}).
		SetResult(&auth).
		Post("/api/collections/users/auth-with-password")
	if err := c.check(res, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "auth failed")
		return fmt.Errorf("pocketbase auth: %w", err)
	}
	if auth.Token == "" {
		err := fmt.Errorf("pocketbase auth: empty token")
		span.RecordError(err)
		span.SetStatus(codes.Error, "auth failed")
		return err
	}
	c.http.SetAuthToken(auth.Token)
	return nil
}

type listResponse struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	Items      []Record `json:"items"`
}

const listPageSize = 500

// List returns every record in a collection matching the filter,
// following pagination.
func (c *Client) List(ctx context.Context, collection, filter string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("filter", filter),
	)

	var records []Record
	for page := 1; ; page++ {
		var body listResponse
		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("perPage", strconv.Itoa(listPageSize)).
			SetResult(&body)
		if filter != "" {
			req.SetQueryParam("filter", filter)
		}
		res, err := req.Get("/api/collections/" + collection + "/records")
		if err := c.check(res, err); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list failed")
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		records = append(records, body.Items...)
		if len(records) >= body.TotalItems || len(body.Items) == 0 {
			return records, nil
		}
	}
}

func (c *Client) Create(ctx context.Context, collection string, body any) (Record, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection))

	var created Record
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		Post("/api/collections/" + collection + "/records")
	if err := c.check(res, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("create in %s: %w", collection, err)
	}
	return created, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, body any) (Record, error) {
	ctx, span := tracer.Start(ctx, "Update")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("id", id),
	)

	var updated Record
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&updated).
		Patch("/api/collections/" + collection + "/records/" + id)
	if err := c.check(res, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return updated, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("id", id),
	)

	res, err := c.http.R().
		SetContext(ctx).
		Delete("/api/collections/" + collection + "/records/" + id)
	if err := c.check(res, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// DeleteByFilter removes every record matching the filter and reports
// how many went.
func (c *Client) DeleteByFilter(ctx context.Context, collection, filter string) (int, error) {
	ctx, span := tracer.Start(ctx, "DeleteByFilter")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("filter", filter),
	)

	records, err := c.List(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := c.Delete(ctx, collection, rec.ID()); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

// UpsertOne updates the first record matching the filter in place, or
// creates one when none exists. collections keyed one-record-per-race
// use this so re-scrapes replace rather than accumulate.
func (c *Client) UpsertOne(ctx context.Context, collection, filter string, body any) error {
	ctx, span := tracer.Start(ctx, "UpsertOne")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("filter", filter),
	)

	existing, err := c.List(ctx, collection, filter)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		_, err := c.Create(ctx, collection, body)
		return err
	}
	if _, err := c.Update(ctx, collection, existing[0].ID(), body); err != nil {
		return err
	}
	// stale duplicates beyond the first are removed so the natural
	// key stays unique
	for _, rec := range existing[1:] {
		if err := c.Delete(ctx, collection, rec.ID()); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll deletes every record matching the filter and creates the
// given bodies fresh. collections with several records per race are
// replaced wholesale so a re-scrape never interleaves old and new
// rows.
func (c *Client) ReplaceAll(ctx context.Context, collection, filter string, bodies []any) error {
	ctx, span := tracer.Start(ctx, "ReplaceAll")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("filter", filter),
	)

	if _, err := c.DeleteByFilter(ctx, collection, filter); err != nil {
		return err
	}
	for _, body := range bodies {
		if _, err := c.Create(ctx, collection, body); err != nil {
			return err
		}
	}
	return nil
}
