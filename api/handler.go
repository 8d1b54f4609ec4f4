package api

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/logger"
)

const defaultFastestCount = 10

type Handler struct {
	db *database.ConfigDB
}

func NewHandler(db *database.ConfigDB) *Handler {
	return &Handler{db: db}
}

type ContractQuery struct {
	Product string `form:"product"`
}

func internalError(c *gin.Context, err error) {
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *Handler) GetContracts(c *gin.Context) {
	var params ContractQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contracts, err := h.db.Contracts(c.Request.Context(), params.Product)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) GetBrokers(c *gin.Context) {
	infos, err := h.db.BrokerInfos(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (h *Handler) GetMDServers(c *gin.Context) {
	servers, err := h.db.MDServers(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (h *Handler) GetUntestedMDServers(c *gin.Context) {
	addrs, err := h.db.UnSpeedTestedMDServers(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

func (h *Handler) GetFastestMDServers(c *gin.Context) {
	n := defaultFastestCount
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = v
	}

	addrs, err := h.db.FastestMDServers(c.Request.Context(), n)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

// SetupRoutes wires the read-back endpoints. pprof routes are optional.
func SetupRoutes(h *Handler, mode string, withPProf bool) *gin.Engine {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if withPProf {
		pprof.Register(r)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/contracts", h.GetContracts)
	r.GET("/api/brokers", h.GetBrokers)
	r.GET("/api/md-servers", h.GetMDServers)
	r.GET("/api/md-servers/untested", h.GetUntestedMDServers)
	r.GET("/api/md-servers/fastest", h.GetFastestMDServers)

	return r
}
