package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"assistant-api/domain"
	"assistant-api/intent"
	"assistant-api/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store TaskStore, assistant Assistant, logger *log.Logger) {
	e.GET("/", health)
	e.POST("/api/query", postQuery(store, assistant, logger))
	e.GET("/api/tasks/today", getTodayTasks(store))
	e.POST("/api/tasks", createTask(store))
	e.DELETE("/api/tasks/:id", deleteTask(store))

	initAuditSender(store, logger)
}

func health(c echo.Context) error {
	return c.String(http.StatusOK, "assistant-api is running")
}

func postQuery(store TaskStore, assistant Assistant, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newQueryMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		lr := io.LimitReader(c.Request().Body, queryMaxSize)
		var req queryRequest
		if decodeErr := sonic.ConfigStd.NewDecoder(lr).Decode(&req); decodeErr != nil || strings.TrimSpace(req.Query) == "" {
			metrics.SetErrorStage("validation")
			err = c.JSON(http.StatusBadRequest, errorResponse{Error: "Query is required"})
			return err
		}

		classifyStart := time.Now()
		matched := intent.Classify(req.Query)
		metrics.ObserveClassify(time.Since(classifyStart))
		metrics.SetIntent(string(matched))

		dispatchStart := time.Now()
		reply, dispatchErr := dispatch(ctx, store, assistant, matched, req.Query)
		metrics.ObserveDispatch(time.Since(dispatchStart))
		if dispatchErr != nil {
			metrics.SetErrorStage("dispatch")
			logger.WithFields(log.Fields{
				"intent": string(matched),
				"error":  dispatchErr.Error(),
			}).Error("query dispatch failed")
			sendQueryEvent(req.Query, matched, http.StatusInternalServerError)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error processing query."})
			return err
		}

		sendQueryEvent(req.Query, matched, http.StatusOK)

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, reply)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

// dispatch runs the single branch selected by the classifier. A branch error
// fails the whole query; the only per-branch fallbacks are the fixed
// "not configured" replies produced by the clients themselves.
func dispatch(ctx context.Context, store TaskStore, assistant Assistant, matched intent.Intent, query string) (domain.Reply, error) {
	switch matched {
	case intent.Weather:
		return assistant.Weather.CurrentWeather(ctx, intent.City(query))
	case intent.Image:
		return assistant.Image.Find(ctx, intent.ImageSubject(query))
	case intent.News:
		return assistant.News.TopHeadlines(ctx)
	case intent.AddTask:
		return addTaskFromQuery(ctx, store, query)
	default:
		return assistant.Answer.Answer(ctx, query)
	}
}

const addTaskHint = `To add a task, say: add task <title> at <HH:MM>.`

func addTaskFromQuery(ctx context.Context, store TaskStore, query string) (domain.Reply, error) {
	req, ok := intent.ParseAddTask(query)
	if !ok {
		return domain.TaskReply{Text: addTaskHint}, nil
	}
	if _, err := store.InsertTask(ctx, req.Title, req.Time, time.Now()); err != nil {
		return nil, err
	}
	return domain.TaskReply{
		Text:         fmt.Sprintf("Task %q added for %s.", req.Title, req.Time),
		TasksUpdated: true,
	}, nil
}

func getTodayTasks(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		from, to := storage.DayWindow(time.Now())
		tasks, err := store.TasksCreatedBetween(ctx, from, to)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to fetch tasks."})
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func createTask(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		lr := io.LimitReader(c.Request().Body, queryMaxSize)
		var req createTaskRequest
		if err := sonic.ConfigStd.NewDecoder(lr).Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Title and time are required"})
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Time) == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Title and time are required"})
		}

		id, err := store.InsertTask(ctx, req.Title, req.Time, time.Now())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to create task."})
		}
		return c.JSON(http.StatusOK, createTaskResponse{Success: true, TaskID: id})
	}
}

func deleteTask(store TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid task id"})
		}
		if err := store.DeleteTask(c.Request().Context(), id); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to delete task."})
		}
		return c.JSON(http.StatusOK, deleteTaskResponse{Success: true})
	}
}
