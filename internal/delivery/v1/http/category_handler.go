package http

import (
	"net/http"

	"github.com/DRSN-tech/category-tree/internal/cache"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/presenter"
	"github.com/DRSN-tech/category-tree/internal/usecase"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type CategoryHandler struct {
	categoryUsecase usecase.CategoryUC
	cacheObserver   cache.Observer
	defaultLocale   domain.Locale
	validate        *validator.Validate
	logger          logger.Logger
}

// NewCategoryHandler создаёт обработчик. cacheObserver может быть nil.
func NewCategoryHandler(categoryUsecase usecase.CategoryUC, cacheObserver cache.Observer,
	defaultLocale domain.Locale, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryUsecase: categoryUsecase,
		cacheObserver:   cacheObserver,
		defaultLocale:   defaultLocale,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		logger:          logger,
	}
}

// fail пишет ошибку в ответ: 5xx логируются как ошибки, 4xx как предупреждения.
func (h *CategoryHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		h.logger.Errorf(err, "%s %s: %d", r.Method, r.URL.Path, code)
	} else {
		h.logger.Warnf("%s %s: %d: %v", r.Method, r.URL.Path, code, err)
	}
	WriteError(w, err)
}

// listChildren
//
//	@Summary		Дочерние категории
//	@Description	Возвращает непосредственных детей категории или корни локали, если parent_id не задан
//	@Tags			categories
//	@Produce		json
//	@Param			locale		query		string	false	"Локаль (en, ar)"
//	@Param			parent_id	query		string	false	"ID родителя"
//	@Success		200			{array}		CategoryResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/categories [get]
func (h *CategoryHandler) listChildren(w http.ResponseWriter, r *http.Request) {
	locale, err := queryLocale(r, h.defaultLocale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	parentID, err := queryParentID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	children, err := h.categoryUsecase.ListChildren(r.Context(), domain.KeyFor(parentID, locale))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponses(children))
}

// tree
//
//	@Summary	Дерево категорий
//	@Tags		categories
//	@Produce	json
//	@Param		locale	query		string	false	"Локаль (en, ar)"
//	@Success	200		{array}		TreeNodeResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/categories/tree [get]
func (h *CategoryHandler) tree(w http.ResponseWriter, r *http.Request) {
	locale, err := queryLocale(r, h.defaultLocale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	roots, err := h.categoryUsecase.Tree(r.Context(), locale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toTreeResponses(roots))
}

// export
//
//	@Summary		Выгрузка категорий
//	@Description	Все категории локали в порядке обхода дерева, родитель раньше детей
//	@Tags			categories
//	@Produce		json
//	@Param			locale	query		string	false	"Локаль (en, ar)"
//	@Success		200		{array}		CategoryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/categories/export [get]
func (h *CategoryHandler) export(w http.ResponseWriter, r *http.Request) {
	locale, err := queryLocale(r, h.defaultLocale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	categories, err := h.categoryUsecase.Export(r.Context(), locale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponses(categories))
}

// search
//
//	@Summary	Поиск категорий
//	@Tags		categories
//	@Produce	json
//	@Param		locale	query		string	false	"Локаль (en, ar)"
//	@Param		q		query		string	true	"Подстрока"
//	@Param		limit	query		int		false	"Максимум результатов"
//	@Success	200		{array}		SearchResultResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/categories/search [get]
func (h *CategoryHandler) search(w http.ResponseWriter, r *http.Request) {
	req, err := h.searchReq(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	results, err := h.categoryUsecase.Search(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSearchResponses(results))
}

// reveal
//
//	@Summary		Поиск с раскрытием дерева
//	@Description	Находит категории и раскрывает уровни дерева вдоль цепочки предков каждой из них
//	@Tags			categories
//	@Produce		json
//	@Param			locale	query		string	false	"Локаль (en, ar)"
//	@Param			q		query		string	true	"Подстрока"
//	@Param			limit	query		int		false	"Максимум результатов"
//	@Success		200		{object}	RevealAllResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/categories/reveal [get]
func (h *CategoryHandler) reveal(w http.ResponseWriter, r *http.Request) {
	req, err := h.searchReq(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	results, err := h.categoryUsecase.Search(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Кэш живёт в пределах запроса: общие предки результатов загружаются один раз
	children := cache.NewChildrenCache(h.categoryUsecase.ListChildren, h.cacheObserver)
	controller := presenter.NewController(children, req.Locale, h.logger)

	reveals, err := controller.RevealAll(r.Context(), results)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res := RevealAllResponse{
		Results:  toSearchResponses(results),
		Reveals:  toRevealResponses(reveals),
		Expanded: controller.Expanded(),
	}
	if target, ok := controller.ScrollTarget(); ok {
		res.ScrollTarget = &target
	}

	WriteSuccess(w, http.StatusOK, res)
}

func (h *CategoryHandler) searchReq(r *http.Request) (*usecase.SearchReq, error) {
	locale, err := queryLocale(r, h.defaultLocale)
	if err != nil {
		return nil, err
	}

	limit, err := queryLimit(r)
	if err != nil {
		return nil, err
	}

	return usecase.NewSearchReq(locale, r.URL.Query().Get("q"), limit), nil
}

// get
//
//	@Summary	Категория по ID
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		string	true	"ID категории"
//	@Success	200	{object}	CategoryResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id} [get]
func (h *CategoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.categoryUsecase.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponse(category))
}

// create
//
//	@Summary		Создание категории
//	@Description	Уровень вычисляется от родителя. Пустой slug выводится из названия
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateCategoryRequest	true	"Категория"
//	@Success		201		{object}	MutationResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Slug занят"
//	@Failure		422		{object}	ErrorResponse	"Недопустимый родитель"
//	@Router			/categories [post]
func (h *CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var body CreateCategoryRequest
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	locale, err := domain.ParseLocale(body.Locale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.categoryUsecase.Create(r.Context(), &usecase.CreateCategoryReq{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		ParentID:    body.ParentID,
		Locale:      locale,
		ImageURL:    body.ImageURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toMutationResponse(res))
}

// update
//
//	@Summary		Изменение категории
//	@Description	Частичное обновление. parentId: null переносит категорию в корень
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"ID категории"
//	@Param			request	body		UpdateCategoryRequest	true	"Изменения"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Slug занят"
//	@Failure		422		{object}	ErrorResponse	"Недопустимый родитель"
//	@Router			/categories/{id} [patch]
func (h *CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var body UpdateCategoryRequest
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.categoryUsecase.Update(r.Context(), &usecase.UpdateCategoryReq{
		ID:          id,
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		SetParent:   body.ParentID.Set,
		ParentID:    body.ParentID.Value,
		SetImage:    body.ImageURL.Set,
		ImageURL:    body.ImageURL.Value,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toMutationResponse(res))
}

// delete
//
//	@Summary		Удаление категории
//	@Description	Категорию с детьми или активными продуктами удалить нельзя
//	@Tags			categories
//	@Produce		json
//	@Param			id	path		string	true	"ID категории"
//	@Success		200	{object}	MutationResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Есть дети или продукты"
//	@Router			/categories/{id} [delete]
func (h *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.categoryUsecase.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toMutationResponse(res))
}

func toMutationResponse(res *usecase.MutationRes) MutationResponse {
	out := MutationResponse{
		InvalidatedLevels: toInvalidatedLevels(res.Invalidate),
		StaleDescendants:  res.StaleDescendants,
	}
	if res.Category != nil {
		category := toCategoryResponse(res.Category)
		out.Category = &category
	}
	return out
}
