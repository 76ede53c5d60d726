package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"netbox-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var uniquenessMarkers = [][]byte{[]byte("unique"), []byte("already exists"), []byte("Duplicate")}

// Client talks to the registry REST API.
type Client struct {
	base     string
	token    string
	tag      string
	pageSize int
	timeout  time.Duration
	logger   *zap.Logger
	group    singleflight.Group
}

// NewClient creates a client for cfg.URL.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("registry url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid registry url %q", cfg.URL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(cfg.URL, "/") + "/api/",
		token:    cfg.Token,
		tag:      cfg.Tag,
		pageSize: pageSize,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

type page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type created struct {
	ID int `json:"id"`
}

func (c *Client) endpoint(path string, q url.Values) string {
	uri := c.base + path + "/"
	if len(q) > 0 {
		uri += "?" + q.Encode()
	}
	return uri
}

func (c *Client) tagged() url.Values {
	q := url.Values{}
	if c.tag != "" {
		q.Set("tag", c.tag)
	}
	return q
}

func (c *Client) do(ctx context.Context, method, uri string, body any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	agent.Set(fiber.HeaderAuthorization, "Token "+c.token)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(c.timeout)
	if body != nil {
		agent.JSON(body)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, fmt.Errorf("%s %s: %v: %w", method, uri, err, reconcile.ErrTransport)
	}

	start := time.Now()
	code, data, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s %s: %v: %w", method, uri, errors.Join(errs...), reconcile.ErrTransport)
	}
	c.logger.Debug("Registry request",
		zap.String("method", method),
		zap.String("uri", uri),
		zap.Int("status", code),
		zap.Duration("duration", time.Since(start)),
	)
	return data, classify(method, uri, code, data)
}

func classify(method, uri string, code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512]
	}
	switch {
	case code == fiber.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, uri, reconcile.ErrNotFound)
	case code == fiber.StatusBadRequest && isUniqueness(body):
		return fmt.Errorf("%s %s: %s: %w", method, uri, msg, reconcile.ErrUniquenessConflict)
	default:
		return fmt.Errorf("%s %s: status %d: %s: %w", method, uri, code, msg, reconcile.ErrTransport)
	}
}

func isUniqueness(body []byte) bool {
	for _, m := range uniquenessMarkers {
		if bytes.Contains(body, m) {
			return true
		}
	}
	return false
}

// get deduplicates identical in-flight reads.
func (c *Client) get(ctx context.Context, uri string) ([]byte, error) {
	v, err, _ := c.group.Do(uri, func() (any, error) {
		return c.do(ctx, fiber.MethodGet, uri, nil)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func list[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	q.Set("limit", strconv.Itoa(c.pageSize))
	var out []T
	for offset := 0; ; {
		q.Set("offset", strconv.Itoa(offset))
		data, err := c.get(ctx, c.endpoint(path, q))
		if err != nil {
			return nil, err
		}
		var p page[T]
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", path, err, reconcile.ErrTransport)
		}
		out = append(out, p.Results...)
		offset += len(p.Results)
		if len(p.Results) == 0 || offset >= p.Count {
			return out, nil
		}
	}
}

func count(ctx context.Context, c *Client, path string, q url.Values) (int, error) {
	q.Set("limit", "1")
	data, err := c.get(ctx, c.endpoint(path, q))
	if err != nil {
		return 0, err
	}
	var p page[json.RawMessage]
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("decode %s: %v: %w", path, err, reconcile.ErrTransport)
	}
	return p.Count, nil
}

func vrfFilter(q url.Values, vrfID int) {
	if vrfID == 0 {
		q.Set("vrf_id", "null")
		return
	}
	q.Set("vrf_id", strconv.Itoa(vrfID))
}

// VirtualMachines implements Reader.
func (c *Client) VirtualMachines(ctx context.Context, cluster string) ([]VirtualMachine, error) {
	q := c.tagged()
	q.Set("cluster", cluster)
	return list[VirtualMachine](ctx, c, string(KindVirtualMachine), q)
}

// VirtualDisks implements Reader.
func (c *Client) VirtualDisks(ctx context.Context) ([]VirtualDisk, error) {
	return list[VirtualDisk](ctx, c, string(KindVirtualDisk), c.tagged())
}

// Interfaces implements Reader.
func (c *Client) Interfaces(ctx context.Context, cluster string) ([]VMInterface, error) {
	q := c.tagged()
	q.Set("cluster", cluster)
	return list[VMInterface](ctx, c, string(KindInterface), q)
}

// VRFs implements Reader.
func (c *Client) VRFs(ctx context.Context) ([]VRF, error) {
	return list[VRF](ctx, c, string(KindVRF), c.tagged())
}

// Prefixes implements Reader.
func (c *Client) Prefixes(ctx context.Context) ([]Prefix, error) {
	return list[Prefix](ctx, c, string(KindPrefix), c.tagged())
}

// IPAddresses implements Reader.
func (c *Client) IPAddresses(ctx context.Context) ([]IPAddress, error) {
	return list[IPAddress](ctx, c, string(KindIPAddress), c.tagged())
}

// FindPrefix implements Reader.
func (c *Client) FindPrefix(ctx context.Context, cidr string, vrfID int) (*Prefix, error) {
	q := url.Values{}
	q.Set("prefix", cidr)
	vrfFilter(q, vrfID)
	found, err := list[Prefix](ctx, c, string(KindPrefix), q)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("prefix %s in vrf %d: %w", cidr, vrfID, reconcile.ErrNotFound)
	}
	return &found[0], nil
}

// FindIPAddress implements Reader.
func (c *Client) FindIPAddress(ctx context.Context, address string, vrfID int) (*IPAddress, error) {
	q := c.tagged()
	q.Set("address", BareAddress(address))
	vrfFilter(q, vrfID)
	found, err := list[IPAddress](ctx, c, string(KindIPAddress), q)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("address %s in vrf %d: %w", address, vrfID, reconcile.ErrNotFound)
	}
	return &found[0], nil
}

// CountIPAddresses implements Reader.
func (c *Client) CountIPAddresses(ctx context.Context, parent string, vrfID int) (int, error) {
	q := url.Values{}
	q.Set("parent", parent)
	vrfFilter(q, vrfID)
	return count(ctx, c, string(KindIPAddress), q)
}

// Lookup implements Reader.
func (c *Client) Lookup(ctx context.Context, kind LookupKind, name string) (int, error) {
	q := url.Values{}
	if kind == LookupTag {
		q.Set("slug", name)
	} else {
		q.Set("name", name)
	}
	found, err := list[Ref](ctx, c, string(kind), q)
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, fmt.Errorf("%s %q: %w", kind, name, reconcile.ErrNotFound)
	}
	return found[0].ID, nil
}

// Create implements Writer.
func (c *Client) Create(ctx context.Context, kind Kind, payload any) (int, error) {
	data, err := c.do(ctx, fiber.MethodPost, c.endpoint(string(kind), nil), payload)
	if err != nil {
		return 0, err
	}
	var obj created
	if err := json.Unmarshal(data, &obj); err != nil {
		return 0, fmt.Errorf("decode created %s: %v: %w", kind, err, reconcile.ErrTransport)
	}
	return obj.ID, nil
}

// Update implements Writer.
func (c *Client) Update(ctx context.Context, kind Kind, id int, payload any) error {
	_, err := c.do(ctx, fiber.MethodPatch, c.endpoint(string(kind)+"/"+strconv.Itoa(id), nil), payload)
	return err
}

// Delete implements Writer with a single bulk request.
func (c *Client) Delete(ctx context.Context, kind Kind, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	body := make([]created, len(ids))
	for i, id := range ids {
		body[i] = created{ID: id}
	}
	_, err := c.do(ctx, fiber.MethodDelete, c.endpoint(string(kind), nil), body)
	return err
}
