package main

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shinee-collection/tracker-web/internal/backend"
	"github.com/shinee-collection/tracker-web/internal/format"
	mw "github.com/shinee-collection/tracker-web/internal/middleware"
	"github.com/shinee-collection/tracker-web/internal/observability"
)

const maxSlots = 50

// RandomHandler renders the registration page with the work select, one
// empty slot, and every registered item.
func (a *app) RandomHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	logger := observability.FromContext(r.Context())

	page := RandomPage{
		PageData: a.pageData(r, "random.title"),
		Editions: a.buildEditionSelect(lang, nil, true),
		Slots:    []SlotView{a.buildSlot(lang, 0)},
	}
	works, err := a.backend.MasterWorks(r.Context())
	if err != nil {
		logger.Warn("master works load failed", zap.Error(err))
		page.MastersFailed = true
	}
	page.Works = works

	items, err := a.backend.RandomItems(r.Context(), "")
	if err != nil {
		logger.Warn("random items load failed", zap.Error(err))
	}
	page.Gallery = buildGallery(lang, items, err)
	a.renderPage(w, r, "random", page)
}

// RandomEditionsFrag renders the edition select for the chosen work.
func (a *app) RandomEditionsFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	workID := strings.TrimSpace(r.URL.Query().Get("discId"))
	if workID == "" {
		a.renderTemplate(w, r, "frag_random_editions", a.buildEditionSelect(lang, nil, true))
		return
	}
	editions, err := a.backend.MasterEditions(r.Context(), workID)
	if err != nil {
		observability.FromContext(r.Context()).Warn("master editions load failed", zap.String("work_id", workID), zap.Error(err))
		a.alert(w, r, "error", "random.masters_error")
		a.renderTemplate(w, r, "frag_random_editions", a.buildEditionSelect(lang, nil, true))
		return
	}
	a.renderTemplate(w, r, "frag_random_editions", a.buildEditionSelect(lang, editions, false))
}

// RandomItemsFrag renders the gallery, narrowed to an edition when given. An
// edition the backend does not know has no items.
func (a *app) RandomItemsFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	editionID := strings.TrimSpace(r.URL.Query().Get("editionId"))
	items, err := a.backend.RandomItems(r.Context(), editionID)
	if backend.IsNotFound(err) {
		items, err = nil, nil
	}
	if err != nil {
		observability.FromContext(r.Context()).Warn("random items load failed", zap.String("edition_id", editionID), zap.Error(err))
	}
	a.renderTemplate(w, r, "frag_random_items", buildGallery(lang, items, err))
}

// RandomSlotFrag renders one more registration row.
func (a *app) RandomSlotFrag(w http.ResponseWriter, r *http.Request) {
	n, ok := slotIndex(r.URL.Query().Get("n"))
	if !ok {
		mw.WriteError(w, r, http.StatusBadRequest, a.i18n.T(mw.Lang(r), "random.invalid_slot"))
		return
	}
	a.renderTemplate(w, r, "frag_random_slot", a.buildSlot(mw.Lang(r), n))
}

// RandomUploadHandler forwards the registration form to the backend. Only
// slots carrying an image are sent, so names, members and images stay aligned.
func (a *app) RandomUploadHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	logger := observability.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.Server.UploadLimit)
	if err := r.ParseMultipartForm(a.cfg.Server.UploadLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			mw.WriteError(w, r, http.StatusRequestEntityTooLarge, a.i18n.T(lang, "random.too_large"))
			return
		}
		mw.WriteError(w, r, http.StatusBadRequest, a.i18n.T(lang, "alert.invalid_form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	up := backend.Upload{
		WorkID:    strings.TrimSpace(r.FormValue("discId")),
		EditionID: strings.TrimSpace(r.FormValue("editionId")),
	}
	if up.WorkID == "" || up.EditionID == "" {
		mw.WriteError(w, r, http.StatusUnprocessableEntity, a.i18n.T(lang, "random.need_edition"))
		return
	}

	items, closeAll, err := uploadItems(r.MultipartForm)
	defer closeAll()
	if err != nil {
		logger.Warn("upload form unreadable", zap.Error(err))
		mw.WriteError(w, r, http.StatusBadRequest, a.i18n.T(lang, "alert.invalid_form"))
		return
	}
	if len(items) == 0 {
		mw.WriteError(w, r, http.StatusUnprocessableEntity, a.i18n.T(lang, "random.need_item"))
		return
	}
	up.Items = items

	res, err := a.backend.UploadRandomItems(r.Context(), up)
	if err != nil {
		logger.Error("random upload failed", zap.String("edition_id", up.EditionID), zap.Int("items", len(items)), zap.Error(err))
		a.reporter.Report(r.Context(), err, map[string]string{"op": "random_upload", "edition_id": up.EditionID})
		var se *backend.StatusError
		if errors.As(err, &se) {
			mw.WriteError(w, r, http.StatusBadGateway, a.i18n.Tf(lang, "random.upload_failed_status", se.Status))
			return
		}
		mw.WriteError(w, r, http.StatusBadGateway, a.i18n.T(lang, "random.upload_failed"))
		return
	}

	if _, err := a.store.Load(r.Context()); err != nil {
		logger.Warn("catalog reload after upload failed", zap.Error(err))
	}
	logger.Info("random items registered", zap.String("edition_id", up.EditionID), zap.Int("count", res.Count), zap.Int64("bytes", res.Bytes))
	a.alert(w, r, "success", "random.uploaded", res.Count, format.Bytes(res.Bytes))

	gallery, gerr := a.backend.RandomItems(r.Context(), up.EditionID)
	if gerr != nil {
		logger.Warn("random items load failed", zap.String("edition_id", up.EditionID), zap.Error(gerr))
	}
	a.renderTemplate(w, r, "frag_random_items", buildGallery(lang, gallery, gerr))
}

// uploadItems collects the slots that carry an image, in slot order.
func uploadItems(form *multipart.Form) ([]backend.UploadItem, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	if form == nil {
		return nil, closeAll, nil
	}

	var slots []int
	seen := map[int]bool{}
	for _, raw := range form.Value["slot"] {
		n, ok := slotIndex(raw)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		slots = append(slots, n)
	}
	sort.Ints(slots)

	var items []backend.UploadItem
	for _, n := range slots {
		key := strconv.Itoa(n)
		headers := form.File["image_"+key]
		if len(headers) == 0 || headers[0].Size == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		opened = append(opened, f)
		items = append(items, backend.UploadItem{
			Name:        strings.TrimSpace(firstValue(form.Value["name_"+key])),
			MemberName:  strings.TrimSpace(firstValue(form.Value["member_"+key])),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Image:       f,
		})
	}
	return items, closeAll, nil
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
