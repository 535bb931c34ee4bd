// Package control manages databases through the monetdbd control
// channel: create, destroy, lock, release, start, stop, status and
// property handling, the way the daemon's own tooling does it.
package control

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"mtest/internal/mapi"
	"mtest/pkg/logging"
)

// DefaultPort is the port monetdbd conventionally listens on.
const DefaultPort = 50000

const (
	controlUsername = "monetdb"
	controlDatabase = "merovingian"
	controlLanguage = "control"
)

// Config selects the daemon to manage and how to authenticate.
type Config struct {
	Hostname   string
	Port       int
	Passphrase string

	// UnixSocket is dialed when Hostname is empty. Left empty it
	// defaults to the daemon's conventional /tmp socket for Port.
	UnixSocket string
}

// Client talks to one monetdbd instance. Every command runs on its own
// connection, so a Client may be reused freely.
type Client struct {
	cfg Config
}

// New fills in the config defaults, verifies the daemon is reachable
// and returns the client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.UnixSocket == "" {
		cfg.UnixSocket = fmt.Sprintf("/tmp/.s.merovingian.%d", cfg.Port)
	}
	if runtime.GOOS == "windows" && cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}

	c := &Client{cfg: cfg}
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking control connection: %w", err)
	}
	conn.Close()
	return c, nil
}

func (c *Client) connect(ctx context.Context) (*mapi.Conn, error) {
	return mapi.Dial(ctx, mapi.Config{
		Hostname:   c.cfg.Hostname,
		Port:       c.cfg.Port,
		Username:   controlUsername,
		Password:   c.cfg.Passphrase,
		Database:   controlDatabase,
		Language:   controlLanguage,
		UnixSocket: c.cfg.UnixSocket,
	})
}

func (c *Client) send(ctx context.Context, database, command string) (string, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	logging.Debug("control", "sending %q to %s", command, database)
	return conn.Cmd(fmt.Sprintf("%s %s\n", database, command))
}

// isEmpty turns any non-empty command reply into the operational error
// it carries.
func isEmpty(result string, err error) error {
	if err != nil {
		return err
	}
	if result != "" {
		return fmt.Errorf("%w: %s", mapi.ErrOperational, result)
	}
	return nil
}

// Create initialises a new database in the daemon's farm. A created
// database starts out in maintenance mode until released.
func (c *Client) Create(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "create"))
}

// Destroy removes the given database including all its data and log
// files. Once destroy has completed, all data is lost.
func (c *Client) Destroy(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "destroy"))
}

// Lock puts the given database in maintenance mode. A database under
// maintenance can only be connected to by the administrator and is not
// started automatically.
func (c *Client) Lock(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "lock"))
}

// Release brings a database back from maintenance mode.
func (c *Client) Release(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "release"))
}

// Start starts the given database, if the daemon is running.
func (c *Client) Start(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "start"))
}

// Stop stops the given database.
func (c *Client) Stop(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "stop"))
}

// Kill kills the given database's server process. A killed database
// may end up with data loss, so it is a last resort to stop one.
func (c *Client) Kill(ctx context.Context, database string) error {
	return isEmpty(c.send(ctx, database, "kill"))
}

// Status reports the state of the given database.
func (c *Client) Status(ctx context.Context, database string) (Status, error) {
	raw, err := c.send(ctx, database, "status")
	if err != nil {
		return Status{}, err
	}
	return ParseStatusLine(raw)
}

// StatusAll reports the state of every database the daemon knows.
func (c *Client) StatusAll(ctx context.Context) ([]Status, error) {
	raw, err := c.send(ctx, "#all", "status")
	if err != nil {
		return nil, err
	}

	var statuses []Status
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		st, err := ParseStatusLine(line)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Set sets a property to a value for the given database. The daemon's
// defaults list names the recognized properties.
func (c *Client) Set(ctx context.Context, database, property, value string) error {
	return isEmpty(c.send(ctx, database, fmt.Sprintf("%s=%s", property, value)))
}

// Get retrieves all properties set on the given database.
func (c *Client) Get(ctx context.Context, database string) (map[string]string, error) {
	raw, err := c.send(ctx, database, "get")
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimPrefix(line, "=")
		if strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			values[key] = value
		}
	}
	return values, nil
}

// Inherit unsets a property, reverting it to the value inherited from
// the daemon's defaults.
func (c *Client) Inherit(ctx context.Context, database, property string) error {
	return isEmpty(c.send(ctx, database, property+"="))
}

// Rename changes a database's name.
func (c *Client) Rename(ctx context.Context, old, new string) error {
	return c.Set(ctx, old, "name", new)
}

// Defaults retrieves the properties newly created databases inherit.
func (c *Client) Defaults(ctx context.Context) (map[string]string, error) {
	return c.Get(ctx, "#defaults")
}

// Neighbours asks the daemon for the databases its neighbours announce.
func (c *Client) Neighbours(ctx context.Context) (string, error) {
	return c.send(ctx, "anelosimus", "eximius")
}
