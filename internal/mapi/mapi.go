// Package mapi implements the client side of the MonetDB wire protocol,
// as far as the daemon control channel needs it: block framing, the
// protocol v9 challenge-response login and single command exchanges.
package mapi

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net"
	"strconv"
	"strings"

	"mtest/pkg/logging"
)

// Sentinel errors mirroring the taxonomy the server protocol implies.
// Operational errors come from the server (`!` replies, refused logins),
// interface errors mean the two sides do not speak the same dialect.
var (
	ErrOperational = errors.New("operational error")
	ErrInterface   = errors.New("interface error")
)

// maxPayload is the largest payload one block frame may carry.
const maxPayload = (1024 * 8) - 2

// maxRedirects bounds the merovingian login loop.
const maxRedirects = 10

const (
	msgOK       = "=OK"
	msgMore     = "\x01\x02\n"
	msgInfo     = '#'
	msgError    = '!'
	msgRedirect = '^'
	msgQuery    = '&'
	msgHeader   = '%'
	msgTuple    = '['
	msgQUpdate  = "&2"
)

type connState int

const (
	stateInit connState = iota
	stateReady
)

// Config selects the server and the session to open on it.
type Config struct {
	Hostname string
	Port     int
	Username string
	Password string
	Database string
	Language string

	// UnixSocket is dialed when Hostname is empty. Left empty it
	// defaults to the server's conventional /tmp socket for Port.
	UnixSocket string
}

func (c Config) socketPath() string {
	if c.UnixSocket != "" {
		return c.UnixSocket
	}
	return fmt.Sprintf("/tmp/.s.monetdb.%d", c.Port)
}

// Conn is a single-session connection to a MonetDB server or daemon.
// It is not safe for concurrent use.
type Conn struct {
	cfg   Config
	conn  net.Conn
	state connState

	// The control language over a unix socket skips both login and
	// block framing; the exchange is raw bytes until the server closes.
	raw bool
}

// Dial opens a connection per the config and performs the login
// handshake where the protocol requires one.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	c := &Conn{cfg: cfg}
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conn) dial(ctx context.Context) error {
	var dialer net.Dialer

	if c.cfg.Hostname != "" {
		addr := net.JoinHostPort(c.cfg.Hostname, strconv.Itoa(c.cfg.Port))
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dialing %s: %w", addr, err)
		}
		c.conn = conn
	} else {
		path := c.cfg.socketPath()
		conn, err := dialer.DialContext(ctx, "unix", path)
		if err != nil {
			return fmt.Errorf("dialing %s: %w", path, err)
		}
		c.conn = conn
		if c.cfg.Language == "control" {
			// Raw control dialect: a single '0' tells the daemon no
			// file descriptor passing follows, and no login happens.
			if _, err := conn.Write([]byte{'0'}); err != nil {
				conn.Close()
				return fmt.Errorf("writing hello byte: %w", err)
			}
			c.raw = true
		}
	}

	c.state = stateInit
	if !c.raw {
		if err := c.login(ctx, 0); err != nil {
			c.conn.Close()
			return err
		}
	}
	c.state = stateReady
	return nil
}

// login reads the server challenge, answers it and interprets the prompt.
// Merovingian redirects restart the handshake on the same connection.
func (c *Conn) login(ctx context.Context, iteration int) error {
	challenge, err := c.getBlock()
	if err != nil {
		return fmt.Errorf("reading challenge: %w", err)
	}

	response, err := c.challengeResponse(challenge)
	if err != nil {
		return err
	}
	if err := c.putBlock([]byte(response)); err != nil {
		return fmt.Errorf("writing login response: %w", err)
	}

	prompt, err := c.getBlock()
	if err != nil {
		return fmt.Errorf("reading login prompt: %w", err)
	}
	prompt = strings.TrimSpace(prompt)

	switch {
	case prompt == "" || prompt == msgOK:
		return nil
	case prompt[0] == msgInfo:
		logging.Debug("mapi", "server: %s", prompt[1:])
		return nil
	case prompt[0] == msgError:
		return fmt.Errorf("%w: %s", ErrOperational, strings.TrimLeft(prompt[1:], " "))
	case prompt[0] == msgRedirect:
		return c.followRedirect(ctx, prompt, iteration)
	default:
		return fmt.Errorf("%w: unexpected login state: %s", ErrInterface, prompt)
	}
}

func (c *Conn) followRedirect(ctx context.Context, prompt string, iteration int) error {
	// Only the first redirect of a multi-line prompt counts.
	target := strings.Fields(prompt)[0][1:]
	parts := strings.Split(target, ":")
	if len(parts) < 2 {
		return fmt.Errorf("%w: malformed redirect: %s", ErrInterface, prompt)
	}

	switch parts[1] {
	case "merovingian":
		logging.Debug("mapi", "restarting authentication")
		if iteration >= maxRedirects {
			return fmt.Errorf("%w: maximal number of redirects reached (%d)", ErrOperational, maxRedirects)
		}
		return c.login(ctx, iteration+1)
	case "monetdb":
		// ^mapi:monetdb://host:port/database points at the server
		// actually holding the database.
		if len(parts) < 4 {
			return fmt.Errorf("%w: malformed redirect: %s", ErrInterface, prompt)
		}
		c.cfg.Hostname = strings.TrimPrefix(parts[2], "//")
		portDB := strings.SplitN(parts[3], "/", 2)
		if len(portDB) != 2 {
			return fmt.Errorf("%w: malformed redirect: %s", ErrInterface, prompt)
		}
		port, err := strconv.Atoi(portDB[0])
		if err != nil {
			return fmt.Errorf("%w: malformed redirect port: %s", ErrInterface, prompt)
		}
		c.cfg.Port = port
		c.cfg.Database = portDB[1]
		logging.Debug("mapi", "redirect to monetdb://%s:%d/%s", c.cfg.Hostname, c.cfg.Port, c.cfg.Database)
		c.conn.Close()
		return c.dial(ctx)
	default:
		return fmt.Errorf("%w: unknown redirect: %s", ErrInterface, prompt)
	}
}

// challengeResponse answers a protocol v9 challenge of the form
// salt:identity:protocol:hashes:endianness:password_algo:.
func (c *Conn) challengeResponse(challenge string) (string, error) {
	parts := strings.Split(challenge, ":")
	if len(parts) < 6 {
		return "", fmt.Errorf("%w: malformed challenge: %s", ErrInterface, challenge)
	}
	salt, protocol, hashes, algo := parts[0], parts[2], parts[3], parts[5]

	if protocol != "9" {
		return "", fmt.Errorf("%w: unsupported protocol version %s, only v9 is spoken", ErrInterface, protocol)
	}

	// The password is hashed with the server-dictated algorithm first,
	// the hex digest of that is what the response digest signs.
	pwDigest := newDigest(algo)
	if pwDigest == nil {
		return "", fmt.Errorf("%w: unsupported password hash %s", ErrInterface, algo)
	}
	password := hexSum(pwDigest, c.cfg.Password)

	name, respDigest := pickResponseDigest(hashes)
	if respDigest == nil {
		return "", fmt.Errorf("%w: no shared response hash in %s", ErrInterface, hashes)
	}
	pwhash := "{" + name + "}" + hexSum(respDigest, password+salt)

	fields := []string{"BIG", c.cfg.Username, pwhash, c.cfg.Language, c.cfg.Database}
	return strings.Join(fields, ":") + ":", nil
}

// responsePreference orders the digests this client can answer with,
// strongest first.
var responsePreference = []string{"SHA512", "SHA384", "SHA256", "SHA224", "SHA1", "MD5"}

func pickResponseDigest(hashes string) (string, func() hash.Hash) {
	offered := make(map[string]bool)
	for _, h := range strings.Split(hashes, ",") {
		offered[strings.TrimSpace(h)] = true
	}
	for _, name := range responsePreference {
		if offered[name] {
			return name, newDigest(name)
		}
	}
	return "", nil
}

func newDigest(name string) func() hash.Hash {
	switch strings.ToUpper(name) {
	case "SHA512":
		return sha512.New
	case "SHA384":
		return sha512.New384
	case "SHA256":
		return sha256.New
	case "SHA224":
		return sha256.New224
	case "SHA1":
		return sha1.New
	case "MD5":
		return md5.New
	}
	return nil
}

func hexSum(digest func() hash.Hash, data string) string {
	h := digest()
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Cmd sends one operation and maps the server's reply: an empty or =OK
// reply means success, `!` carries an operational error, query replies
// pass through untouched.
func (c *Conn) Cmd(operation string) (string, error) {
	logging.Debug("mapi", "executing command %q", operation)

	if c.state != stateReady {
		return "", fmt.Errorf("%w: not connected", ErrInterface)
	}

	if err := c.putBlock([]byte(operation)); err != nil {
		return "", fmt.Errorf("writing command: %w", err)
	}
	response, err := c.getBlock()
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	switch {
	case len(response) == 0:
		return "", nil
	case strings.HasPrefix(response, msgOK):
		return strings.TrimSpace(response[len(msgOK):]), nil
	case response == msgMore:
		// The server wants more input it is not going to get.
		return c.Cmd("")
	}

	if strings.HasPrefix(response, msgQUpdate) {
		for _, line := range strings.Split(response, "\n") {
			if strings.HasPrefix(line, string(msgError)) {
				return "", fmt.Errorf("%w: %s", ErrOperational, line[1:])
			}
		}
	}

	switch response[0] {
	case msgQuery, msgHeader, msgTuple:
		return response, nil
	case msgError:
		return "", fmt.Errorf("%w: %s", ErrOperational, strings.TrimRight(response[1:], "\n"))
	case msgInfo:
		logging.Debug("mapi", "server: %s", response[1:])
		return "", nil
	}

	if c.raw {
		// The raw control dialect acknowledges with a bare OK line.
		if strings.HasPrefix(response, "OK") {
			return strings.TrimSpace(response[2:]), nil
		}
		return response, nil
	}

	return "", fmt.Errorf("%w: unknown state: %s", ErrInterface, response)
}

// Close tears the connection down. Closing twice is harmless.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	c.state = stateInit
	err := c.conn.Close()
	c.conn = nil
	return err
}

// putBlock writes one message, split into frames of at most maxPayload
// bytes. Each frame carries a two byte little-endian header holding
// length<<1, with the low bit marking the final frame.
func (c *Conn) putBlock(data []byte) error {
	if c.raw {
		_, err := c.conn.Write(data)
		return err
	}

	pos := 0
	for last := false; !last; {
		end := pos + maxPayload
		if end > len(data) {
			end = len(data)
		}
		chunk := data[pos:end]
		if len(chunk) < maxPayload {
			last = true
		}

		flag := uint16(len(chunk)) << 1
		if last {
			flag |= 1
		}
		var header [2]byte
		binary.LittleEndian.PutUint16(header[:], flag)

		if _, err := c.conn.Write(header[:]); err != nil {
			return err
		}
		if _, err := c.conn.Write(chunk); err != nil {
			return err
		}
		pos = end
	}
	return nil
}

// getBlock reads one message, reassembling it from frames until one
// carries the final bit.
func (c *Conn) getBlock() (string, error) {
	if c.raw {
		// The raw dialect has no framing, the reply runs to EOF.
		data, err := io.ReadAll(c.conn)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	var buf strings.Builder
	for {
		var header [2]byte
		if _, err := io.ReadFull(c.conn, header[:]); err != nil {
			return "", err
		}
		flag := binary.LittleEndian.Uint16(header[:])
		length := int64(flag >> 1)
		if length > 0 {
			if _, err := io.CopyN(&buf, c.conn, length); err != nil {
				return "", err
			}
		}
		if flag&1 == 1 {
			break
		}
	}
	return buf.String(), nil
}
