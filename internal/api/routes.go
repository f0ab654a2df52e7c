package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/alerts", s.alertsHandler.ListAlerts)
		api.POST("/alerts", s.alertsHandler.CreateAlert)
	}

	s.router.GET("/ws/alerts", s.wsHandler.AlertsWS)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
		system.POST("/ai", s.systemHandler.ToggleAI)
	}
}
