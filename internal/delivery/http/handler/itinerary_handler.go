package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/delivery/http/middleware"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/pkg/utils"
	"github.com/itinerary-microservice/internal/pkg/validator"
	"github.com/itinerary-microservice/internal/usecase"
	"github.com/itinerary-microservice/internal/usecase/dto"
)

// ItineraryHandler - обработчик запросов к маршрутам
type ItineraryHandler struct {
	itineraryUC *usecase.ItineraryUseCase
	logger      *zap.Logger
}

// NewItineraryHandler - создание нового ItineraryHandler
func NewItineraryHandler(itineraryUC *usecase.ItineraryUseCase, logger *zap.Logger) *ItineraryHandler {
	return &ItineraryHandler{
		itineraryUC: itineraryUC,
		logger:      logger,
	}
}

// Register mounts the itinerary routes on router.
func (h *ItineraryHandler) Register(router fiber.Router) {
	it := router.Group("/itineraries", middleware.Owner())

	it.Post("/", h.Create)
	it.Get("/", h.List)
	it.Get("/:id", h.Get)
	it.Patch("/:id", h.Update)
	it.Delete("/:id", h.Delete)
	it.Get("/:id/enriched", h.GetEnriched)
	it.Get("/:id/statistics", h.GetStatistics)
	it.Post("/:id/points", h.AddPoint)
	it.Put("/:id/points/order", h.ReorderPoints)
	it.Delete("/:id/points/:poi_id", h.RemovePoint)
	it.Post("/:id/optimize", h.Optimize)
	it.Post("/:id/duplicate", h.Duplicate)
	it.Post("/:id/archive", h.Archive)
	it.Post("/:id/unarchive", h.Unarchive)
	it.Get("/:id/suggestions/nearby", h.SuggestNearby)
	it.Get("/:id/suggestions/city", h.SuggestForCity)
}

// Create - создание маршрута
// @Summary Создать маршрут
// @Description Создаёт маршрут с заданным количеством пустых дней. Необязательные poi_ids добавляются в первый день.
// @Tags Itineraries
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param request body dto.CreateItineraryRequest true "Параметры маршрута"
// @Success 201 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/itineraries [post]
func (h *ItineraryHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateItineraryRequest
	if err := h.parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.Create(c.Context(), middleware.OwnerID(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, route)
}

// List - список маршрутов владельца
// @Summary Список маршрутов
// @Tags Itineraries
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param archived query bool false "Архивные маршруты" default(false)
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/itineraries [get]
func (h *ItineraryHandler) List(c *fiber.Ctx) error {
	var req dto.ListItinerariesRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("invalid query: %v", err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.itineraryUC.List(c.Context(), middleware.OwnerID(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result.Items, &utils.Meta{
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	})
}

// Get - маршрут со всеми днями и точками
// @Summary Получить маршрут
// @Tags Itineraries
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id} [get]
func (h *ItineraryHandler) Get(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.Get(c.Context(), middleware.OwnerID(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// Update - изменение названия, описания или способа передвижения
// @Summary Обновить маршрут
// @Tags Itineraries
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param request body dto.UpdateItineraryRequest true "Изменяемые поля"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id} [patch]
func (h *ItineraryHandler) Update(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdateItineraryRequest
	if err := h.parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.Update(c.Context(), middleware.OwnerID(c), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// Delete - удаление маршрута
// @Summary Удалить маршрут
// @Tags Itineraries
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id} [delete]
func (h *ItineraryHandler) Delete(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.itineraryUC.Delete(c.Context(), middleware.OwnerID(c), id); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetEnriched - маршрут с актуальными данными POI из каталога
// @Summary Маршрут с данными каталога
// @Tags Itineraries
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.EnrichedItinerary}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/enriched [get]
func (h *ItineraryHandler) GetEnriched(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.itineraryUC.GetEnriched(c.Context(), middleware.OwnerID(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// GetStatistics - статистика маршрута по дням
// @Summary Статистика маршрута
// @Tags Itineraries
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.RouteStatistics}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/statistics [get]
func (h *ItineraryHandler) GetStatistics(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	stats, err := h.itineraryUC.GetStatistics(c.Context(), middleware.OwnerID(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, stats, nil)
}

// AddPoint - добавление POI в маршрут
// @Summary Добавить точку
// @Description Без day_number точка попадает в последний день, без order_index в конец дня.
// @Tags Points
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param request body dto.AddPointRequest true "Точка"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/points [post]
func (h *ItineraryHandler) AddPoint(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.AddPointRequest
	if err := h.parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.AddPoint(c.Context(), middleware.OwnerID(c), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// RemovePoint - удаление всех вхождений POI из маршрута
// @Summary Удалить точку
// @Tags Points
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param poi_id path int true "ID POI"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/points/{poi_id} [delete]
func (h *ItineraryHandler) RemovePoint(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	poiID, err := strconv.ParseInt(c.Params("poi_id"), 10, 64)
	if err != nil || poiID < 1 {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"poi_id": c.Params("poi_id")}))
	}

	route, err := h.itineraryUC.RemovePoint(c.Context(), middleware.OwnerID(c), id, poiID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// ReorderPoints - новый порядок точек
// @Summary Изменить порядок точек
// @Description point_ids должен содержать каждую точку маршрута ровно один раз. Точки остаются в своих днях.
// @Tags Points
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param request body dto.ReorderPointsRequest true "Порядок точек"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/points/order [put]
func (h *ItineraryHandler) ReorderPoints(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.ReorderPointsRequest
	if err := h.parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.ReorderPoints(c.Context(), middleware.OwnerID(c), id, req.PointIDs)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// Optimize - оптимизация порядка точек
// @Summary Оптимизировать маршрут
// @Description Каждый день оптимизируется отдельно. С async=true задача уходит в воркер и возвращается 202.
// @Tags Itineraries
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param request body dto.OptimizeRequest true "Режим оптимизации"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Success 202 {object} utils.SuccessResponse{data=dto.OptimizationRequestedResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/optimize [post]
func (h *ItineraryHandler) Optimize(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.OptimizeRequest
	if err := h.parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	ownerID := middleware.OwnerID(c)

	if req.Async {
		accepted, err := h.itineraryUC.RequestOptimization(c.Context(), ownerID, id, req.Mode)
		if err != nil {
			return utils.SendError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse{Data: accepted})
	}

	route, err := h.itineraryUC.Optimize(c.Context(), ownerID, id, req.Mode)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// Duplicate - копия маршрута
// @Summary Дублировать маршрут
// @Description По умолчанию копия называется "<имя> (copy)".
// @Tags Itineraries
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param request body dto.DuplicateRequest false "Имя копии"
// @Success 201 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/duplicate [post]
func (h *ItineraryHandler) Duplicate(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.DuplicateRequest
	if len(c.Body()) > 0 {
		if err := h.parseBody(c, &req); err != nil {
			return utils.SendError(c, err)
		}
	}

	route, err := h.itineraryUC.Duplicate(c.Context(), middleware.OwnerID(c), id, req.Name)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, route)
}

// Archive - перенос маршрута в архив
// @Summary Архивировать маршрут
// @Tags Itineraries
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/archive [post]
func (h *ItineraryHandler) Archive(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.Archive(c.Context(), middleware.OwnerID(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// Unarchive - восстановление маршрута из архива
// @Summary Восстановить маршрут из архива
// @Tags Itineraries
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/unarchive [post]
func (h *ItineraryHandler) Unarchive(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.itineraryUC.Unarchive(c.Context(), middleware.OwnerID(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// SuggestNearby - POI рядом с последней точкой дня
// @Summary Предложения рядом с днём
// @Tags Suggestions
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param day query int true "Номер дня"
// @Param radius_m query number false "Радиус поиска в метрах (10-50000)" default(1000)
// @Param category query string false "Категория POI"
// @Param limit query int false "Максимальное количество" default(10)
// @Success 200 {object} utils.SuccessResponse{data=dto.SuggestionsResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/suggestions/nearby [get]
func (h *ItineraryHandler) SuggestNearby(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.SuggestNearbyRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("invalid query: %v", err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.itineraryUC.SuggestNearby(c.Context(), middleware.OwnerID(c), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// SuggestForCity - POI города, которых ещё нет в маршруте
// @Summary Предложения по городу
// @Tags Suggestions
// @Produce json
// @Param X-User-ID header string true "ID владельца"
// @Param id path string true "ID маршрута"
// @Param category query string false "Категория POI"
// @Param limit query int false "Максимальное количество" default(10)
// @Success 200 {object} utils.SuccessResponse{data=dto.SuggestionsResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/itineraries/{id}/suggestions/city [get]
func (h *ItineraryHandler) SuggestForCity(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.SuggestForCityRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("invalid query: %v", err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.itineraryUC.SuggestForCity(c.Context(), middleware.OwnerID(c), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// parseBody decodes and validates a JSON body.
func (h *ItineraryHandler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		h.logger.Debug("Invalid request body", zap.String("path", c.Path()), zap.Error(err))
		return errors.ErrInvalidRequest.WithMessage("invalid request body")
	}
	return validator.Validate(out)
}

func routeID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"id": c.Params("id")})
	}
	return id, nil
}
