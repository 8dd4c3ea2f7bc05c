package httpapi

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/labstack/echo/v4"
)

const (
	serviceName = "string-editor"
	pingTimeout = 2 * time.Second
)

var startedAt = time.Now()

type handler struct {
	deps   Deps
	logger logging.Logger
}

// --- auth ---

func (h *handler) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if _, err := h.deps.Accounts.Register(c.Request().Context(), req.Login, req.Password); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "user registered"})
}

func (h *handler) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	token, err := h.deps.Accounts.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	err := h.deps.Accounts.ChangePassword(c.Request().Context(), currentUser(c), req.OldPassword, req.NewPassword)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password changed, log in again"})
}

func (h *handler) deleteAccount(c echo.Context) error {
	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.deps.Accounts.DeleteAccount(c.Request().Context(), currentUser(c), req.Password); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}

// --- strings ---

func (h *handler) saveStrings(c echo.Context) error {
	var req stringsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	n, err := h.deps.Content.Save(c.Request().Context(), currentUser(c), req.Strings)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, saveResponse{Message: "strings saved", Count: n})
}

func (h *handler) getAllStrings(c echo.Context) error {
	lines, err := h.deps.Content.GetAll(c.Request().Context(), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, getAllResponse{Strings: lines})
}

func (h *handler) deleteAllStrings(c echo.Context) error {
	if err := h.deps.Content.DeleteAll(c.Request().Context(), currentUser(c)); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "all strings deleted"})
}

func (h *handler) sortStrings(c echo.Context) error {
	var req sortRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ascending := true
	if req.Ascending != nil {
		ascending = *req.Ascending
	}

	res, err := h.deps.Content.Sort(c.Request().Context(), currentUser(c), req.Strings, ascending)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, sortResponse{SortedStrings: res.Lines, ExecutionTimeMs: res.ElapsedMs})
}

func (h *handler) searchStrings(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.deps.Content.Search(c.Request().Context(), currentUser(c), req.Strings, req.SearchText, req.CaseSensitive)
	if err != nil {
		return writeError(c, err)
	}

	if len(res.Matches) == 0 {
		return c.JSON(http.StatusOK, noMatchesResponse{Message: "no matches", ExecutionTimeMs: res.ElapsedMs})
	}

	return c.JSON(http.StatusOK, searchResponse{
		FoundCount:      len(res.Matches),
		Results:         res.Matches,
		ExecutionTimeMs: res.ElapsedMs,
	})
}

func (h *handler) replaceStrings(c echo.Context) error {
	var req replaceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.deps.Content.Replace(c.Request().Context(), currentUser(c), req.Strings, req.OldValue, req.NewValue, req.CaseSensitive)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, replaceResponse{ModifiedStrings: res.Lines, ExecutionTimeMs: res.ElapsedMs})
}

func (h *handler) deleteStrings(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.deps.Content.Delete(c.Request().Context(), currentUser(c), req.Strings, req.IndicesToDelete)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, deleteResponse{
		RemainingStrings: res.Lines,
		DeletedCount:     res.Deleted,
		ExecutionTimeMs:  res.ElapsedMs,
	})
}

// --- history ---

func (h *handler) getHistory(c echo.Context) error {
	ops, err := h.deps.History.History(c.Request().Context(), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}

	out := make([]operationResponse, 0, len(ops))
	for _, op := range ops {
		out = append(out, operationResponse{
			ID:              op.ID,
			OperationType:   string(op.Type),
			Parameters:      op.Parameters,
			Result:          op.Result,
			ExecutionTimeMs: op.ExecutionTimeMs,
			OperationTime:   op.OperationTime.Local().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, out)
}

// --- service ---

func (h *handler) index(c echo.Context) error {
	return c.JSON(http.StatusOK, indexResponse{
		Service:   serviceName,
		Version:   h.deps.Version,
		Endpoints: endpoints,
	})
}

func (h *handler) systemInfo(c echo.Context) error {
	active := 0
	if h.deps.ActiveSessions != nil {
		active = h.deps.ActiveSessions()
	}

	return c.JSON(http.StatusOK, systemInfoResponse{
		GoVersion:      runtime.Version(),
		Goroutines:     runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		UptimeSeconds:  time.Since(startedAt).Seconds(),
		ActiveSessions: active,
	})
}

func (h *handler) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	if err := h.deps.Store.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check: store unreachable", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
