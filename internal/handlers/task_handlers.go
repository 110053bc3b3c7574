package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"farmTracker/internal/handlers/dto"
	"farmTracker/internal/logger"
	"farmTracker/internal/models/task"
	"farmTracker/internal/service"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.TaskService.HealthCheck(ctx); err != nil {
		logger.Error("HTTP: Health check не прошёл", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("time", time.Now().UTC()))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()))
}

func (s *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := s.TaskService.CreateTask(r.Context(), actor, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", created))
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	in := service.ListTasksInput{}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			logger.Warn("HTTP: Ошибка получения параметра",
				zap.String("query", "limit"),
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, service.CodeValidation, "limit должен быть числом")
			return
		}
		in.Limit = limit
	}
	if raw := query.Get("status"); raw != "" {
		status := task.Status(raw)
		in.Status = &status
	}
	if raw := query.Get("priority"); raw != "" {
		priority := task.Priority(raw)
		in.Priority = &priority
	}
	if raw := query.Get("category"); raw != "" {
		category := task.Category(raw)
		in.Category = &category
	}
	if raw := query.Get("cow_id"); raw != "" {
		in.CowID = &raw
	}

	tasks, err := s.TaskService.ListTasks(r.Context(), actor, in)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	responseWithTasks(w, tasks)
}

func (s *TaskHandler) TodayTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	tasks, err := s.TaskService.TodayTasks(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "today_tasks")
		return
	}

	responseWithTasks(w, tasks)
}

func (s *TaskHandler) OverdueTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	tasks, err := s.TaskService.OverdueTasks(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "overdue_tasks")
		return
	}

	responseWithTasks(w, tasks)
}

func (s *TaskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	stats, err := s.TaskService.Statistics(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "task_statistics")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("statistics", stats))
}

func (s *TaskHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if startDate == "" || endDate == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "start_date/end_date"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "start_date и end_date обязательны")
		return
	}

	days, err := s.TaskService.Calendar(r.Context(), actor, startDate, endDate)
	if err != nil {
		handleServiceError(w, r, err, "task_calendar")
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("start_date", startDate),
		toPayload("end_date", endDate),
		toPayload("days", days))
}

func (s *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	found, err := s.TaskService.GetTask(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("task", found))
}

func (s *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var patch task.Patch
	if !decodeJSON(w, r, &patch, false) {
		return
	}

	logger.Info("HTTP: Запрос к сервису обновления задачи", zap.String("task_id", id.String()))
	updated, err := s.TaskService.UpdateTask(r.Context(), actor, id, patch)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", updated))
}

func (s *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var request dto.CompleteTaskRequest
	if !decodeJSON(w, r, &request, true) {
		return
	}

	result, err := s.TaskService.CompleteTask(r.Context(), actor, id, request.CompletionNotes)
	if err != nil {
		handleServiceError(w, r, err, "complete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача завершена",
		zap.String("task_id", id.String()),
		zap.Bool("next_created", result.Next != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	payload := []Payload{toPayload("task", result.Task)}
	if result.Next != nil {
		payload = append(payload, toPayload("next_task", result.Next))
	}
	responseWithJSON(w, http.StatusOK, payload...)
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи", zap.String("task_id", id.String()))
	if err := s.TaskService.DeleteTask(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func responseWithTasks(w http.ResponseWriter, tasks []*task.Task) {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", tasks),
		toPayload("count", len(tasks)))
}
