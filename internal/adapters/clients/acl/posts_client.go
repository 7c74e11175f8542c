package acl

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const postsPath = "/posts"

// Text sources for mapped quotes.
const (
	TextFromTitle = "title"
	TextFromBody  = "body"
)

// pushUserID is the author id sent with pushed quotes.
const pushUserID = 1

// PostsClientConfig configures the posts adapter.
type PostsClientConfig struct {
	// Client is the instrumented HTTP client with BaseURL set to the posts API.
	Client *clients.Client

	// Category is assigned to every fetched quote.
	Category string

	// TextField selects which post field becomes the quote text: "title" or "body".
	TextField string

	Logger *slog.Logger
}

// PostsClient implements ports.RemoteQuotes and ports.HealthChecker against
// a JSONPlaceholder-style posts collection.
type PostsClient struct {
	remote    remote
	category  string
	textField string
	logger    *slog.Logger
}

// NewPostsClient creates the adapter. Panics if Client is nil.
func NewPostsClient(cfg PostsClientConfig) *PostsClient {
	if cfg.Client == nil {
		panic("PostsClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	textField := cfg.TextField
	if textField != TextFromTitle {
		textField = TextFromBody
	}

	return &PostsClient{
		remote:    remote{client: cfg.Client, service: cfg.Client.ServiceName()},
		category:  cfg.Category,
		textField: textField,
		logger:    logger,
	}
}

// post is the remote DTO.
type post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// newPost is the remote create payload.
type newPost struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// FetchAll retrieves every post and maps each one to a quote as is. Synced
// records are not validated, so the result always has one quote per post.
func (c *PostsClient) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", postsPath))

	var posts []post
	if err := c.remote.getJSON(ctx, postsPath, "fetch posts", &posts); err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(posts))
	for _, p := range posts {
		quotes = append(quotes, domain.Quote{Text: c.textOf(&p), Category: c.category})
	}

	c.logger.Log(ctx, logging.LevelTrace, "translated posts to quotes",
		slog.Int("posts", len(posts)),
		slog.Int("quotes", len(quotes)))

	return quotes, nil
}

// Create pushes quote as a new post: title carries the text, body the category.
func (c *PostsClient) Create(ctx context.Context, quote domain.Quote) error {
	payload := newPost{Title: quote.Text, Body: quote.Category, UserID: pushUserID}

	var created post
	if err := c.remote.postJSON(ctx, postsPath, "create post", payload, &created); err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "quote pushed", slog.Int("post_id", created.ID))
	return nil
}

func (c *PostsClient) textOf(p *post) string {
	if c.textField == TextFromTitle {
		return p.Title
	}
	return p.Body
}

// Name implements ports.HealthChecker.
func (c *PostsClient) Name() string {
	return c.remote.service
}

// Check fetches a single post to verify connectivity.
func (c *PostsClient) Check(ctx context.Context) error {
	return c.remote.getJSON(ctx, postsPath+"/1", "health check", nil)
}

