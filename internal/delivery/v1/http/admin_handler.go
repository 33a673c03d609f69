package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

type AdminHandler struct {
	store   usecase.ConfigStoreUC
	editor  usecase.CatalogEditorUC
	adminUC usecase.AdminUC
	logger  logger.Logger
}

func NewAdminHandler(store usecase.ConfigStoreUC, editor usecase.CatalogEditorUC, adminUC usecase.AdminUC, logger logger.Logger) *AdminHandler {
	return &AdminHandler{
		store:   store,
		editor:  editor,
		adminUC: adminUC,
		logger:  logger,
	}
}

// SNAPSHOT

// exportConfig отдаёт снимок целиком, включая список операторов.
func (a *AdminHandler) exportConfig(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.store.Snapshot()
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, converter.ToSnapshotModel(snapshot))
}

// importConfig заменяет снимок целиком и сохраняет его.
func (a *AdminHandler) importConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		WriteError(w, e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest))
		return
	}

	snapshot, err := converter.Unmarshal(body)
	if err != nil {
		a.logger.Warnf("%d import rejected: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := a.store.Replace(r.Context(), snapshot)
	a.logSave("config import", res, err)
	writeMutation(w, http.StatusOK, nil, res, err)
}

// save повторяет сохранение текущего снимка после деградированной записи.
func (a *AdminHandler) save(w http.ResponseWriter, r *http.Request) {
	res, err := a.store.Save(r.Context())
	a.logSave("manual save", res, err)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, MutationResponse{Save: ToSaveResponse(res)})
}

// reload перечитывает снимок: удалённый источник, затем кэш.
func (a *AdminHandler) reload(w http.ResponseWriter, r *http.Request) {
	res, err := a.store.Load(r.Context())
	if err != nil {
		a.logger.Errorf(err, "reload failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, LoadResponse{Source: string(res.Source), Products: res.Products})
}

// PRODUCTS

func (a *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		WriteError(w, err)
		return
	}

	p, res, err := a.editor.CreateProduct(r.Context(), in)
	a.logSave("create product", res, err)
	if p != nil {
		writeMutation(w, http.StatusCreated, converter.ToProductModel(p), res, err)
		return
	}
	writeMutation(w, http.StatusCreated, nil, res, err)
}

func (a *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		WriteError(w, err)
		return
	}

	p, res, err := a.editor.UpdateProduct(r.Context(), id, in)
	a.logSave("update product", res, err)
	if p != nil {
		writeMutation(w, http.StatusOK, converter.ToProductModel(p), res, err)
		return
	}
	writeMutation(w, http.StatusOK, nil, res, err)
}

func (a *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.editor.DeleteProduct(r.Context(), id)
	a.logSave("delete product", res, err)
	writeMutation(w, http.StatusOK, nil, res, err)
}

// CATEGORIES

func (a *AdminHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	c, res, err := a.editor.CreateCategory(r.Context(), req.ToInput())
	a.logSave("create category", res, err)
	if c != nil {
		writeMutation(w, http.StatusCreated, CategoryRequest{ID: c.ID, Name: c.Name, Emoji: c.Emoji, Description: c.Description}, res, err)
		return
	}
	writeMutation(w, http.StatusCreated, nil, res, err)
}

// updateCategory меняет поля категории; другой id в теле переименовывает её вместе с товарами.
func (a *AdminHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	c, res, err := a.editor.UpdateCategory(r.Context(), chi.URLParam(r, "categoryID"), req.ToInput())
	a.logSave("update category", res, err)
	if c != nil {
		writeMutation(w, http.StatusOK, CategoryRequest{ID: c.ID, Name: c.Name, Emoji: c.Emoji, Description: c.Description}, res, err)
		return
	}
	writeMutation(w, http.StatusOK, nil, res, err)
}

// deleteCategory удаляет категорию с товарами; требует ?confirm=true.
func (a *AdminHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	removed, res, err := a.editor.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID"), confirmed)
	a.logSave("delete category", res, err)
	writeMutation(w, http.StatusOK, map[string]int{"removed_products": removed}, res, err)
}

// SETTINGS

func (a *AdminHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.adminUC.Settings()
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ToSettingsResponse(settings))
}

func (a *AdminHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.adminUC.UpdateSettings(r.Context(), req.TelegramUsername, req.ChannelLink)
	a.logSave("update settings", res, err)
	writeMutation(w, http.StatusOK, nil, res, err)
}

func (a *AdminHandler) addAdmin(w http.ResponseWriter, r *http.Request) {
	var req IdentityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.adminUC.AddAdmin(r.Context(), req.Identity)
	a.logSave("add admin", res, err)
	writeMutation(w, http.StatusCreated, nil, res, err)
}

func (a *AdminHandler) removeAdmin(w http.ResponseWriter, r *http.Request) {
	res, err := a.adminUC.RemoveAdmin(r.Context(), chi.URLParam(r, "identity"))
	a.logSave("remove admin", res, err)
	writeMutation(w, http.StatusOK, nil, res, err)
}

func (a *AdminHandler) logSave(action string, res *usecase.SaveResult, err error) {
	switch {
	case err != nil:
		a.logger.Warnf("%s failed: %v", action, err)
	case res != nil && res.Outcome() != usecase.FullySaved:
		a.logger.Warnf("%s: %s: %v", action, res.Outcome(), res.RemoteErr)
	default:
		a.logger.Debugf("%s: %s", action, res.Outcome())
	}
}
