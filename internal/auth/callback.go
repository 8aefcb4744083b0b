package auth

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/basecamp/basecamp-cli/internal/output"
)

const (
	callbackReadLimit   = 8192
	callbackPollEvery   = 50 * time.Millisecond
	callbackReplyWindow = 5 * time.Second

	successBody = "<html><body><h1>Basecamp login complete</h1><p>You can close this window.</p></body></html>"
	failureBody = "<html><body><h1>Basecamp login failed</h1><p>You can return to the terminal and retry.</p></body></html>"
)

// CallbackPayload is the code/state pair delivered by the OAuth redirect.
type CallbackPayload struct {
	Code  string
	State string
}

// CallbackServer is a one-shot loopback listener for the OAuth redirect. It
// answers exactly one HTTP request and then shuts down; anything beyond that
// single GET is out of scope, so it speaks just enough HTTP/1.1 by hand
// instead of dragging in net/http's connection management.
type CallbackServer struct {
	listener     *net.TCPListener
	expectedPath string
	timeout      time.Duration
}

// BindCallback validates the redirect URI and opens the loopback listener.
// CLI login only supports http on localhost with an explicit port; anything
// else fails before a socket is opened.
func BindCallback(redirectURI string, timeout time.Duration) (*CallbackServer, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, output.ErrInvalidInput(fmt.Sprintf("Invalid redirect_uri: %v", err))
	}
	if parsed.Scheme != "http" {
		return nil, output.ErrInvalidInput("redirect_uri for CLI login must use http loopback (for example http://127.0.0.1:45455/callback).")
	}
	host := parsed.Hostname()
	if host == "" {
		return nil, output.ErrInvalidInput("redirect_uri must include a host.")
	}
	if host != "127.0.0.1" && host != "localhost" {
		return nil, output.ErrInvalidInput("redirect_uri host must be localhost or 127.0.0.1 for CLI login.")
	}
	port := parsed.Port()
	if port == "" {
		return nil, output.ErrInvalidInput("redirect_uri must include an explicit port for local callback handling.")
	}

	expectedPath := parsed.Path
	if expectedPath == "" {
		expectedPath = "/"
	}

	bindAddr := "127.0.0.1:" + port
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, output.ErrOAuth(fmt.Sprintf("Failed to bind callback server on %s: %v", bindAddr, err))
	}

	return &CallbackServer{
		listener:     listener.(*net.TCPListener),
		expectedPath: expectedPath,
		timeout:      timeout,
	}, nil
}

// Addr returns the bound listener address.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// Close releases the listener. WaitForCode does this itself; Close exists
// for callers that bind but never wait.
func (s *CallbackServer) Close() error {
	return s.listener.Close()
}

// WaitForCode blocks until the redirect arrives or the timeout passes. It
// consumes the server: the listener is closed before returning, success or
// not. The accept loop wakes every 50ms so the process stays responsive to
// the deadline without a second goroutine.
func (s *CallbackServer) WaitForCode() (CallbackPayload, error) {
	defer s.listener.Close()

	deadline := time.Now().Add(s.timeout)
	for time.Now().Before(deadline) {
		if err := s.listener.SetDeadline(time.Now().Add(callbackPollEvery)); err != nil {
			return CallbackPayload{}, output.ErrOAuth(fmt.Sprintf("Failed to configure callback server: %v", err))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return CallbackPayload{}, output.ErrOAuth(fmt.Sprintf("Failed to receive callback request: %v", err))
		}
		defer conn.Close()
		return parseCallbackRequest(conn, s.expectedPath)
	}

	return CallbackPayload{}, output.ErrOAuthRetryable("Timed out waiting for OAuth callback.", "Try login again")
}

// parseCallbackRequest reads one request off the connection and answers it.
// Only the request line matters; headers and body are ignored.
func parseCallbackRequest(conn net.Conn, expectedPath string) (CallbackPayload, error) {
	_ = conn.SetDeadline(time.Now().Add(callbackReplyWindow))

	buf := make([]byte, callbackReadLimit)
	n, err := conn.Read(buf)
	if err != nil {
		return CallbackPayload{}, output.ErrOAuth(fmt.Sprintf("Failed to read callback request: %v", err))
	}

	request := string(buf[:n])
	firstLine, _, _ := strings.Cut(request, "\n")
	firstLine = strings.TrimRight(firstLine, "\r")
	if strings.TrimSpace(firstLine) == "" {
		return CallbackPayload{}, output.ErrOAuth("Received malformed callback request.")
	}

	fields := strings.Fields(firstLine)
	method, target := "", ""
	if len(fields) > 0 {
		method = fields[0]
	}
	if len(fields) > 1 {
		target = fields[1]
	}

	if method != "GET" {
		writeCallbackResponse(conn, "405 Method Not Allowed", failureBody)
		return CallbackPayload{}, output.ErrOAuth("Callback request used unsupported HTTP method.")
	}

	path, rawQuery, _ := strings.Cut(target, "?")
	if path != expectedPath {
		writeCallbackResponse(conn, "404 Not Found", failureBody)
		return CallbackPayload{}, output.ErrOAuth(fmt.Sprintf("Callback path mismatch. Expected %s, got %s.", expectedPath, path))
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		writeCallbackResponse(conn, "400 Bad Request", failureBody)
		return CallbackPayload{}, output.ErrOAuth(fmt.Sprintf("Failed to parse callback query: %v", err))
	}

	code := query.Get("code")
	if code == "" {
		writeCallbackResponse(conn, "400 Bad Request", failureBody)
		return CallbackPayload{}, output.ErrOAuth("OAuth callback did not include code parameter.")
	}
	state := query.Get("state")
	if state == "" {
		writeCallbackResponse(conn, "400 Bad Request", failureBody)
		return CallbackPayload{}, output.ErrOAuth("OAuth callback did not include state parameter.")
	}

	writeCallbackResponse(conn, "200 OK", successBody)
	return CallbackPayload{Code: code, State: state}, nil
}

func writeCallbackResponse(conn net.Conn, status, body string) {
	response := fmt.Sprintf(
		"HTTP/1.1 %s\r\nContent-Type: text/html; charset=utf-8\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		status, len(body), body)
	// The browser already rendered or will render something either way; a
	// failed write must not mask the real login error.
	_, _ = conn.Write([]byte(response))
}
