// 文件: internal/api/handlers.go
package api

import (
	"Tracks_Transfer/config"
	"Tracks_Transfer/internal/task"
	"Tracks_Transfer/pkg/database"
	"Tracks_Transfer/pkg/transfer"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// APIHandlers 持有所有依赖
type APIHandlers struct {
	taskManager *task.Manager
	transferer  *transfer.Transferer
	db          database.Store
	configPath  string
}

// NewAPIHandlers 创建一个新的API处理器实例。configPath 是 PUT /config 写回的文件。
func NewAPIHandlers(tm *task.Manager, tr *transfer.Transferer, db database.Store, configPath string) *APIHandlers {
	return &APIHandlers{
		taskManager: tm,
		transferer:  tr,
		db:          db,
		configPath:  configPath,
	}
}

// --- 辅助函数 ---

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// statusForError 把迁移错误的种类映射为 HTTP 状态码。
func statusForError(err error) int {
	var (
		inputErr     *transfer.InputValidationError
		malformedErr *transfer.MalformedFilenameError
		dupErr       *transfer.DuplicatePrefixError
		mismatchErr  *transfer.MismatchError
	)
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrTaskRunning):
		return http.StatusConflict
	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.As(err, &malformedErr), errors.As(err, &dupErr), errors.As(err, &mismatchErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type transferRequest struct {
	SourceDir string `json:"sourceDir"`
	TargetDir string `json:"targetDir"`
	DryRun    *bool  `json:"dryRun"`
}

// decodeTransferRequest 读取请求体，未给出的字段使用配置文件中的默认值。
func decodeTransferRequest(r *http.Request) (transferRequest, bool, error) {
	var payload transferRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, false, err
	}
	defaults := config.Current().Transfer
	if payload.SourceDir == "" {
		payload.SourceDir = defaults.SourceDir
	}
	if payload.TargetDir == "" {
		payload.TargetDir = defaults.TargetDir
	}
	dryRun := defaults.DryRun
	if payload.DryRun != nil {
		dryRun = *payload.DryRun
	}
	return payload, dryRun, nil
}

// --- 任务处理器 ---

func (h *APIHandlers) HandleStartTransferTask(w http.ResponseWriter, r *http.Request) {
	payload, dryRun, err := decodeTransferRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}
	taskID, err := h.taskManager.StartTransferTask(payload.SourceDir, payload.TargetDir, dryRun)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}

func (h *APIHandlers) HandleGetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	status, err := h.taskManager.GetTaskStatus(taskID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// HandlePreview 同步生成重命名计划，不修改任何文件。
func (h *APIHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	payload, _, err := decodeTransferRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}
	res, err := h.transferer.Plan(payload.SourceDir, payload.TargetDir)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// --- 历史处理器 ---

func (h *APIHandlers) HandleListTransfers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if _, ok := database.PageSkip(page, limit); !ok {
		respondError(w, http.StatusBadRequest, "page 超出范围: "+strconv.Itoa(page))
		return
	}
	records, total, err := h.db.Transfers().List(r.Context(), page, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "无法获取迁移历史: "+err.Error())
		return
	}
	response := map[string]interface{}{
		"data": records,
		"pagination": map[string]interface{}{
			"currentPage": page,
			"totalPages":  int(math.Ceil(float64(total) / float64(limit))),
			"totalItems":  total,
		},
	}
	respondJSON(w, http.StatusOK, response)
}

// --- 配置处理器 ---

// HandleGetConfig 获取当前应用配置
func (h *APIHandlers) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, config.Current())
}

// HandleUpdateConfig 更新并保存应用配置。
// 只更新内存中的当前配置和配置文件，正在运行的 Transferer 使用的选项要到重启后才生效。
func (h *APIHandlers) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var newConfig config.Config
	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		respondError(w, http.StatusBadRequest, "无效的配置格式: "+err.Error())
		return
	}

	yamlData, err := yaml.Marshal(&newConfig)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "序列化配置为YAML失败: "+err.Error())
		return
	}
	if err := os.WriteFile(h.configPath, yamlData, 0644); err != nil {
		respondError(w, http.StatusInternalServerError, "写入配置文件失败: "+err.Error())
		return
	}

	config.Set(&newConfig)
	respondJSON(w, http.StatusOK, &newConfig)
}
