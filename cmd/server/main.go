package main

import (
	"context"
	"log"
	"os"

	"taskman/internal/api/handler"
	"taskman/internal/core/postgres/repository"
	"taskman/internal/domain"
	appredis "taskman/internal/infrastructure/redis"
	applog "taskman/internal/log"
	"taskman/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	applog.Setup(envOr("LOG_LEVEL", "info"))

	dsn := envOr("DATABASE_URL",
		"host=localhost user=postgres password=postgres dbname=taskman port=5432 sslmode=disable")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(
		&domain.Process{},
		&domain.Task{},
		&domain.WorkflowEdge{},
		&domain.TaskStep{},
		&domain.Objective{},
		&domain.ObjectiveProcess{},
		&domain.ProcessInstance{},
		&domain.TaskInstance{},
	); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}

	redisClient, err := appredis.NewClient(context.Background(), envOr("REDIS_ADDR", "localhost:6379"))
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}
	bus := appredis.NewEventBus(redisClient)

	defRepo := repository.NewDefinitionRepository(db)
	instRepo := repository.NewInstanceRepository(db)
	dashRepo := repository.NewDashboardRepository(db)

	defSvc := service.NewDefinitionService(defRepo)
	instSvc := service.NewInstanceService(defRepo, instRepo, bus)
	integritySvc := service.NewIntegrityService(defRepo, instRepo)
	monitorSvc := service.NewMonitorService(defRepo, dashRepo)

	defHandler := handler.NewDefinitionHandler(defSvc, integritySvc)
	instHandler := handler.NewInstanceHandler(instSvc, integritySvc)
	monHandler := handler.NewMonitorHandler(monitorSvc)

	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/processes", defHandler.CreateProcess)
		api.GET("/processes", defHandler.ListProcesses)
		api.GET("/processes/:id", defHandler.GetProcess)
		api.PATCH("/processes/:id", defHandler.UpdateProcess)
		api.POST("/processes/:id/activate", defHandler.ActivateProcess)
		api.DELETE("/processes/:id", defHandler.DeleteProcess)
		api.GET("/processes/:id/workflow", monHandler.WorkflowSteps)

		api.POST("/tasks", defHandler.CreateTask)
		api.GET("/tasks", defHandler.ListTasks)
		api.GET("/tasks/:id", defHandler.GetTask)
		api.PATCH("/tasks/:id", defHandler.UpdateTask)
		api.DELETE("/tasks/:id", defHandler.DeleteTask)
		api.GET("/tasks/:id/steps", defHandler.ListTaskSteps)
		api.POST("/tasks/:id/steps/reorder", defHandler.ReorderTaskSteps)

		api.POST("/edges", defHandler.CreateWorkflowEdge)
		api.GET("/edges", defHandler.ListWorkflowEdges)
		api.PATCH("/edges/:id", defHandler.UpdateWorkflowEdge)
		api.DELETE("/edges/:id", defHandler.DeleteWorkflowEdge)

		api.POST("/steps", defHandler.CreateTaskStep)
		api.PATCH("/steps/:id", defHandler.UpdateTaskStep)
		api.DELETE("/steps/:id", defHandler.DeleteTaskStep)

		api.POST("/objectives", defHandler.CreateObjective)
		api.GET("/objectives", defHandler.ListObjectives)
		api.GET("/objectives/:id", defHandler.GetObjective)
		api.PATCH("/objectives/:id", defHandler.UpdateObjective)
		api.POST("/objectives/:id/processes", defHandler.LinkObjectiveProcess)
		api.GET("/objectives/:id/processes", defHandler.ListObjectiveProcesses)
		api.DELETE("/objectives/:id", defHandler.DeleteObjective)

		api.POST("/process-instances", instHandler.CreateProcessInstance)
		api.GET("/process-instances", instHandler.ListProcessInstances)
		api.GET("/process-instances/:id", instHandler.GetProcessInstance)
		api.POST("/process-instances/:id/transition", instHandler.TransitionProcessInstance)
		api.GET("/process-instances/:id/progress", instHandler.Progress)
		api.DELETE("/process-instances/:id", instHandler.DeleteProcessInstance)

		api.POST("/task-instances", instHandler.CreateTaskInstance)
		api.GET("/task-instances", instHandler.ListTaskInstances)
		api.GET("/task-instances/:id", instHandler.GetTaskInstance)
		api.PATCH("/task-instances/:id", instHandler.UpdateTaskInstance)
		api.POST("/task-instances/:id/transition", instHandler.TransitionTaskInstance)
		api.DELETE("/task-instances/:id", instHandler.DeleteTaskInstance)

		api.GET("/dashboard/summary", monHandler.Summary)
		api.GET("/dashboard/running", monHandler.RunningInstances)
		api.GET("/dashboard/activity", monHandler.RecentActivity)
	}

	addr := envOr("LISTEN_ADDR", ":8080")
	log.Println("Server starting on", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
