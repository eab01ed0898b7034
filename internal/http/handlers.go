package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sujalbistaa/confessly/internal/confession"
	"github.com/sujalbistaa/confessly/internal/metrics"
	"github.com/sujalbistaa/confessly/internal/ws"
)

// Env bundles handler dependencies.
type Env struct {
	Svc       *confession.Service
	Hub       *ws.Hub
	AdminPath string
}

// --- Public handlers ---

func (e *Env) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

func (e *Env) ListConfessions(c *gin.Context) {
	sort := c.Query("sort")
	confessions, err := e.Svc.ListPublic(c.Request.Context(), sort)
	if err != nil {
		log.Error().Err(err).Msg("list confessions")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}
	c.HTML(http.StatusOK, "confessions.html", gin.H{
		"Confessions": confessions,
		"Sort":        sort,
	})
}

func (e *Env) GetConfession(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	conf, err := e.Svc.GetPublic(c.Request.Context(), uint(id))
	if err != nil {
		// The public path renders a message rather than an error
		// status; archived and missing look identical from outside.
		if errors.Is(err, confession.ErrNotFound) {
			c.String(http.StatusOK, "Confession was not found")
			return
		}
		log.Error().Err(err).Uint64("id", id).Msg("get confession")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}
	c.HTML(http.StatusOK, "confession.html", gin.H{"Confession": conf})
}

func (e *Env) CreateConfession(c *gin.Context) {
	text := c.PostForm("confession")
	conf, err := e.Svc.Submit(c.Request.Context(), text, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		var verr *confession.ValidationError
		if errors.As(err, &verr) {
			c.String(http.StatusOK, verr.Reason)
			return
		}
		log.Error().Err(err).Msg("create confession")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}

	metrics.SubmissionsTotal.Inc()
	e.Hub.Notify(ws.Event{Type: "new_confession", Data: conf})
	c.Redirect(http.StatusSeeOther, "/confessions")
}

func (e *Env) Vote(c *gin.Context) {
	// An unparsable id stays 0 and falls out as not-found; the vote
	// token is still validated first, before the store is touched.
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	token := c.Param("vote")

	err := e.Svc.Vote(c.Request.Context(), uint(id), token)
	switch {
	case errors.Is(err, confession.ErrInvalidVote):
		c.String(http.StatusBadRequest, "Invalid input: vote must be 1 (upvote) or -1 (downvote)")
	case errors.Is(err, confession.ErrNotFound):
		c.String(http.StatusNotFound, "Confession not found")
	case err != nil:
		log.Error().Err(err).Uint64("id", id).Msg("vote")
		c.String(http.StatusInternalServerError, "Something went wrong!")
	default:
		metrics.VotesTotal.WithLabelValues(voteDirection(token)).Inc()
		e.Hub.Notify(ws.Event{Type: "vote", Data: gin.H{"id": id, "vote": token}})
		c.String(http.StatusOK, "Vote Successful")
	}
}

func voteDirection(token string) string {
	if token == "1" {
		return "up"
	}
	return "down"
}

// --- Admin handlers ---

func (e *Env) AdminList(c *gin.Context) {
	confessions, err := e.Svc.ListAll(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin list")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"Confessions": confessions,
		"AdminPath":   e.AdminPath,
	})
}

func (e *Env) AdminEditForm(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	conf, err := e.Svc.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, confession.ErrNotFound) {
			c.String(http.StatusNotFound, "Confession not found")
			return
		}
		log.Error().Err(err).Uint64("id", id).Msg("admin edit form")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}
	c.HTML(http.StatusOK, "edit.html", gin.H{
		"Confession": conf,
		"AdminPath":  e.AdminPath,
	})
}

// AdminUpdate applies a partial edit from the form. Empty fields leave
// the stored value alone; the archived checkbox is absolute (unticked
// means unarchive, not "keep").
func (e *Env) AdminUpdate(c *gin.Context) {
	id, _ := strconv.ParseUint(c.PostForm("id"), 10, 32)

	in := confession.UpdateInput{
		Archived: c.PostForm("archived") == "on",
	}
	if v := c.PostForm("text"); v != "" {
		in.Text = &v
	}
	if v := c.PostForm("score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.Score = &n
		}
	}
	if v := c.PostForm("ipAddress"); v != "" {
		in.IPAddress = &v
	}
	if v := c.PostForm("userAgent"); v != "" {
		in.UserAgent = &v
	}

	if err := e.Svc.AdminUpdate(c.Request.Context(), uint(id), in); err != nil {
		if errors.Is(err, confession.ErrNotFound) {
			c.String(http.StatusNotFound, "Confession not found")
			return
		}
		log.Error().Err(err).Uint64("id", id).Msg("admin update")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}
	c.Redirect(http.StatusSeeOther, "/"+e.AdminPath)
}

func (e *Env) AdminDelete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	if err := e.Svc.AdminDelete(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, confession.ErrNotFound) {
			c.String(http.StatusNotFound, "Confession not found")
			return
		}
		log.Error().Err(err).Uint64("id", id).Msg("admin delete")
		c.String(http.StatusInternalServerError, "Something went wrong!")
		return
	}
	c.Redirect(http.StatusSeeOther, "/"+e.AdminPath)
}
