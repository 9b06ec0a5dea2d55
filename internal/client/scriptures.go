package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"scriptures/mapped/internal/config"
	"scriptures/mapped/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type ScripturesClient interface {
	GetBooks(ctx context.Context) ([]domain.Book, error)
	GetVolumes(ctx context.Context) ([]domain.Volume, error)
	GetChapter(ctx context.Context, bookID, chapter int) (*domain.ChapterContent, error)
}

type scripturesClient struct {
	rl         ratelimit.Limiter
	config     config.ScripturesConfig
	baseURL    string
	httpClient *resty.Client
	parser     *geotagParser
}

func NewScripturesClient(cfg config.ScripturesConfig) ScripturesClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &scripturesClient{
		rl:         ratelimit.New(rps),
		config:     cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
		parser:     newGeotagParser(),
	}
}

// GetBooks fetches the book catalog. The endpoint returns an object keyed by
// book id; a plain array is accepted too.
func (c *scripturesClient) GetBooks(ctx context.Context) ([]domain.Book, error) {
	body, err := c.fetch(ctx, c.baseURL+c.config.BooksPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch books: %w", err)
	}

	var books []domain.Book
	if strings.HasPrefix(strings.TrimSpace(body), "[") {
		if err := json.Unmarshal([]byte(body), &books); err != nil {
			return nil, fmt.Errorf("failed to decode books: %w", err)
		}
	} else {
		byID := make(map[string]domain.Book)
		if err := json.Unmarshal([]byte(body), &byID); err != nil {
			return nil, fmt.Errorf("failed to decode books: %w", err)
		}
		books = make([]domain.Book, 0, len(byID))
		for key, book := range byID {
			if book.ID == 0 {
				if id, err := strconv.Atoi(key); err == nil {
					book.ID = id
				}
			}
			books = append(books, book)
		}
	}

	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	log.Debugf("Fetched %d books", len(books))
	return books, nil
}

func (c *scripturesClient) GetVolumes(ctx context.Context) ([]domain.Volume, error) {
	body, err := c.fetch(ctx, c.baseURL+c.config.VolumesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volumes: %w", err)
	}

	var volumes []domain.Volume
	if err := json.Unmarshal([]byte(body), &volumes); err != nil {
		return nil, fmt.Errorf("failed to decode volumes: %w", err)
	}

	log.Debugf("Fetched %d volumes", len(volumes))
	return volumes, nil
}

func (c *scripturesClient) GetChapter(ctx context.Context, bookID, chapter int) (*domain.ChapterContent, error) {
	url := fmt.Sprintf("%s%s?book=%d&chap=%d", c.baseURL, c.config.ChapterPath, bookID, chapter)
	if c.config.ChapterOptions != "" {
		url += "&" + c.config.ChapterOptions
	}

	html, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chapter %d:%d: %w", bookID, chapter, err)
	}

	content, err := c.parser.ParseChapter(html, bookID, chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chapter %d:%d: %w", bookID, chapter, err)
	}

	log.Debugf("Successfully fetched chapter %d:%d with %d geotags", bookID, chapter, len(content.Geotags))
	return content, nil
}

func (c *scripturesClient) fetch(ctx context.Context, url string) (string, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode(), resp.Status())
	}

	return resp.String(), nil
}
