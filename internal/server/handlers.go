package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"embedrc/internal/provider"
	"embedrc/internal/registry"
)

type resolveRequest struct {
	Text string `json:"text" binding:"required"`
}

type resolveResponse struct {
	Kind        string         `json:"kind"`
	State       string         `json:"state"`
	Markup      string         `json:"markup"`
	AspectRatio float64        `json:"aspect_ratio,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
}

type filterRequest struct {
	HTML string `json:"html" binding:"required"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type endpointView struct {
	URL       string   `json:"url"`
	Schemes   []string `json:"schemes,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	Discovery bool     `json:"discovery,omitempty"`
}

type providerView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	Enabled   bool           `json:"enabled"`
	Source    string         `json:"source"`
	Endpoints []endpointView `json:"endpoints"`
}

func viewOf(p provider.Provider) providerView {
	v := providerView{
		ID:      p.ID,
		Name:    p.Name,
		URL:     p.URL,
		Enabled: p.Enabled,
		Source:  p.Source.String(),
	}
	for _, e := range p.Endpoints {
		v.Endpoints = append(v.Endpoints, endpointView{
			URL:       e.URL,
			Schemes:   e.Schemes,
			Formats:   e.Formats,
			Discovery: e.Discovery,
		})
	}
	return v
}

func errorJSON(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	res := s.current().Resolver.ResolveResult(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, resolveResponse{
		Kind:        res.Kind.String(),
		State:       res.State.String(),
		Markup:      res.Markup,
		AspectRatio: res.AspectRatio,
		Provider:    res.Provider,
		Raw:         res.Raw,
		Warnings:    res.Warnings,
	})
}

func (s *Server) filterText(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": s.current().Resolver.FilterText(c.Request.Context(), req.HTML)})
}

func (s *Server) listProviders(c *gin.Context) {
	scope, err := registry.ParseScope(c.Query("scope"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	list := s.current().Catalog.Providers(scope)
	views := make([]providerView, 0, len(list))
	for _, p := range list {
		views = append(views, viewOf(p))
	}
	c.JSON(http.StatusOK, gin.H{"providers": views})
}

func (s *Server) setEnabled(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	id := c.Param("id")
	if err := s.current().Catalog.SetEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		if errors.Is(err, registry.ErrUnknownProvider) {
			errorJSON(c, http.StatusNotFound, err)
			return
		}
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

func (s *Server) refresh(c *gin.Context) {
	force := true
	if v := c.Query("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, err)
			return
		}
		force = b
	}

	catalog := s.current().Catalog
	if err := catalog.Load(c.Request.Context(), force); err != nil {
		errorJSON(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": len(catalog.Providers(registry.All))})
}
