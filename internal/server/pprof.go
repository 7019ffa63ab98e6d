package server

import (
	"go.uber.org/zap"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// StartPprofServer serves pprof on its own port so the profiling
// endpoints never ride the public listener. Reach it over an SSH
// tunnel.
func StartPprofServer(addr string, logger *zap.Logger) {
	r := gin.New()
	pprof.Register(r)

	go func() {
		logger.Info("Starting pprof server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			logger.Error("Pprof server stopped", zap.Error(err))
		}
	}()
}
