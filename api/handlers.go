package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, hasher *PasswordHasher, logger *log.Logger) {
	users := e.Group("/api/v1/auth")
	users.POST("/signup", signup(store, auth, hasher))
	users.POST("/login", login(store, auth, hasher))
	users.GET("/count", userCount(store))
	users.GET("/me", currentUser(store, auth))

	sections := e.Group("/api/v1/section")
	sections.GET("", getSections(store, auth))
	sections.POST("", addSection(store, auth))
	sections.PUT("/:id", renameSection(store, auth))
	sections.DELETE("/:id", deleteSection(store, auth))

	tasks := e.Group("/api/v1/task")
	tasks.GET("/:sectionId", sectionTasks(store, auth))
	tasks.POST("", addTask(store, auth))
	tasks.PATCH("/move", moveTask(store, auth, logger))
	tasks.PUT("/:taskId", updateTask(store, auth))
	tasks.DELETE("/:taskId", deleteTask(store, auth))

	e.GET("/healthz", healthz())
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type countResponse struct {
	TotalUsers int64 `json:"totalUsers"`
}

// storeError maps a storage failure onto the response taxonomy: missing
// entity, state conflict, or an opaque server-side failure.
func storeError(c echo.Context, err error) error {
	var nf NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: nf.Error()})
	}
	var cf ConflictError
	if errors.As(err, &cf) {
		return c.JSON(http.StatusConflict, errorResponse{Error: cf.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected storage failure"})
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func signup(store Storage, auth Authenticator, hasher *PasswordHasher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req signupRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}

		hash, err := hasher.Hash(req.Password)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to create user"})
		}
		user := domain.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			ProfilePic:   req.ProfilePic,
		}
		if err := store.CreateUser(ctx, &user); err != nil {
			return storeError(c, err)
		}

		token, err := auth.GenerateToken(user.ID, user.Email)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to issue token"})
		}
		return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
	}
}

func login(store Storage, auth Authenticator, hasher *PasswordHasher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}

		user, err := store.UserByEmail(ctx, req.Email)
		if err != nil {
			var nf NotFoundError
			if errors.As(err, &nf) {
				// Unknown email and wrong password look the same to callers.
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
			}
			return storeError(c, err)
		}
		if !hasher.Verify(req.Password, user.PasswordHash) {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
		}

		token, err := auth.GenerateToken(user.ID, user.Email)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to issue token"})
		}
		return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
	}
}

func userCount(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		count, err := store.CountUsers(c.Request().Context())
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, countResponse{TotalUsers: count})
	}
}

func currentUser(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		user, err := store.UserByID(c.Request().Context(), userID)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, user)
	}
}

func getSections(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		sections, err := store.ListSections(c.Request().Context())
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, sections)
	}
}

func addSection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req sectionRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		section, err := store.CreateSection(c.Request().Context(), req.Name, req.SectionID)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, section)
	}
}

func renameSection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req renameSectionRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		section, err := store.RenameSection(c.Request().Context(), c.Param("id"), req.Name)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, section)
	}
}

func deleteSection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := store.DeleteSection(c.Request().Context(), c.Param("id")); err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "section deleted"})
	}
}

func sectionTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		tasks, err := store.TasksBySection(c.Request().Context(), c.Param("sectionId"))
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func addTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req taskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		due, err := domain.ParseDueDate(req.DueDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		task := domain.Task{
			Name:        req.Name,
			Description: req.Description,
			DueDate:     due,
			Assignee:    req.Assignee,
			SectionID:   req.SectionID,
		}
		created, err := store.CreateTask(c.Request().Context(), &task)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func updateTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		patch := domain.TaskPatch{
			Name:        req.Name,
			Description: req.Description,
			Assignee:    req.Assignee,
			SectionID:   req.SectionID,
		}
		if req.DueDate != nil {
			due, err := domain.ParseDueDate(*req.DueDate)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			}
			patch.DueDate = &due
		}
		task, err := store.UpdateTask(c.Request().Context(), c.Param("taskId"), patch)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := store.DeleteTask(c.Request().Context(), c.Param("taskId")); err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
	}
}

func moveTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics := newMoveRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		var req moveTaskRequest
		if decodeErr := decodeBody(c, &req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return err
		}
		if validateErr := req.Validate(); validateErr != nil {
			metrics.SetErrorStage("validate")
			err = c.JSON(http.StatusBadRequest, errorResponse{Error: validateErr.Error()})
			return err
		}

		moveStart := time.Now()
		task, moveErr := store.MoveTask(ctx, req.TaskID, req.SourceSectionID, req.DestinationSectionID)
		metrics.ObserveMove(time.Since(moveStart))
		if moveErr != nil {
			var nf NotFoundError
			var cf ConflictError
			switch {
			case errors.As(moveErr, &nf):
				metrics.SetErrorStage("not_found")
				err = c.JSON(http.StatusNotFound, errorResponse{Error: nf.Error()})
			case errors.As(moveErr, &cf):
				metrics.SetErrorStage("conflict")
				err = c.JSON(http.StatusConflict, errorResponse{Error: cf.Error()})
			default:
				metrics.SetErrorStage("storage")
				c.Logger().Error(moveErr)
				err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to move task"})
			}
			return err
		}

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, task)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}
