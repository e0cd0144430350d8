package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	domcontent "github.com/kailas-cloud/jgrants-mcp/internal/domain/content"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/search/criteria"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/overview"
)

// Tool names.
const (
	ToolSearchSubsidies    = "search_subsidies"
	ToolGetSubsidyOverview = "get_subsidy_overview"
	ToolGetSubsidyDetail   = "get_subsidy_detail"
	ToolGetFileContent     = "get_file_content"
	ToolPing               = "ping"
)

const attribution = "出典表示: 取得した情報を利用・公開する際は「Jグランツ（jGrants）からの出典」である旨を明記してください。"

// tool binds a description to the handler that serves it.
type tool struct {
	name        string
	title       string
	description string
	inputSchema map[string]any
	annotations *toolAnnotations
	call        func(ctx context.Context, args json.RawMessage) (any, error)
}

func boolPtr(v bool) *bool { return &v }

// readOnly marks tools that never change upstream state.
func readOnly() *toolAnnotations {
	return &toolAnnotations{
		ReadOnlyHint:  boolPtr(true),
		OpenWorldHint: boolPtr(true),
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description, def string, values ...string) map[string]any {
	p := map[string]any{"type": "string", "description": description, "enum": values}
	if def != "" {
		p["default"] = def
	}
	return p
}

// decodeArgs unmarshals tool arguments into dst. Missing arguments decode
// as an empty object.
func decodeArgs(args json.RawMessage, dst any) error {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func vocabulary(values []string) string {
	return "「" + strings.Join(values, "」「") + "」"
}

func newTools(svc Services) []tool {
	return []tool{
		searchTool(svc.Search),
		overviewTool(svc.Overview),
		detailTool(svc.Detail),
		fileContentTool(svc.Content),
		pingTool(svc.Health),
	}
}

type searchArgs struct {
	Keyword                 string `json:"keyword"`
	UsePurpose              string `json:"use_purpose"`
	Industry                string `json:"industry"`
	TargetNumberOfEmployees string `json:"target_number_of_employees"`
	TargetAreaSearch        string `json:"target_area_search"`
	Sort                    string `json:"sort"`
	Order                   string `json:"order"`
	Acceptance              *int   `json:"acceptance"`
}

func searchTool(svc Searcher) tool {
	multi := "複数指定する場合は「" + criteria.Delimiter + "」（半角スペース＋半角スラッシュ＋半角スペース）で区切ります。"
	return tool{
		name:  ToolSearchSubsidies,
		title: "補助金検索",
		description: "jGrants公開APIの補助金検索（GET /subsidies）で補助金を検索します。\n" +
			"結果は subsidies（APIの result 配列）、total_count（件数）、search_conditions（APIへ渡した条件）です。\n" +
			"各補助金の詳細は https://www.jgrants-portal.go.jp/grants/view/{subsidy_id} で確認できます。\n" +
			attribution,
		inputSchema: objectSchema(map[string]any{
			"keyword": map[string]any{
				"type": "string",
				"description": fmt.Sprintf("検索キーワード（%d〜%d文字、必須）。大文字・小文字や全角・半角の表記ゆれは区別されません。",
					criteria.MinKeywordLength, criteria.MaxKeywordLength),
				"minLength": criteria.MinKeywordLength,
				"maxLength": criteria.MaxKeywordLength,
			},
			"use_purpose":                stringProp("利用目的。" + multi + "値: " + vocabulary(criteria.UsePurposes)),
			"industry":                   stringProp("業種。" + multi + "値: " + vocabulary(criteria.Industries)),
			"target_number_of_employees": stringProp("従業員数の上限。値: " + vocabulary(criteria.EmployeeBands)),
			"target_area_search":         stringProp("補助対象地域。" + multi + "値: " + vocabulary(criteria.Areas)),
			"sort": enumProp("並び順フィールド。created_date：作成日時、acceptance_start_datetime：募集開始日時、acceptance_end_datetime：募集終了日時",
				criteria.SortAcceptanceEnd, criteria.SortFields...),
			"order": enumProp("ソート順", criteria.OrderASC, criteria.OrderASC, criteria.OrderDESC),
			"acceptance": map[string]any{
				"type":        "integer",
				"description": "受付期間フィルタ（0=しない, 1=受付中のみ）",
				"enum":        []int{0, 1},
				"default":     1,
			},
		}, "keyword"),
		annotations: readOnly(),
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args searchArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			c, err := criteria.New(criteria.Params{
				Keyword:                 args.Keyword,
				UsePurpose:              args.UsePurpose,
				Industry:                args.Industry,
				TargetNumberOfEmployees: args.TargetNumberOfEmployees,
				TargetAreaSearch:        args.TargetAreaSearch,
				Sort:                    args.Sort,
				Order:                   args.Order,
				Acceptance:              args.Acceptance,
			})
			if err != nil {
				return nil, err
			}
			return svc.Search(ctx, c)
		},
	}
}

type overviewArgs struct {
	OutputFormat string `json:"output_format"`
}

func overviewTool(svc Overviewer) tool {
	return tool{
		name:  ToolGetSubsidyOverview,
		title: "補助金の最新状況",
		description: "受付中の補助金を締切までの期間別・補助上限額の規模別に集計し、締切間近の案件を一覧にします。\n" +
			"集計はAPIに存在しないためサーバー内で算出します（キーワード「" + criteria.DefaultKeyword + "」で検索した結果が対象）。\n" +
			"output_format=\"csv\" の場合は CSV テキストを含む結果を返します。\n" +
			attribution,
		inputSchema: objectSchema(map[string]any{
			"output_format": enumProp("出力形式", string(overview.FormatJSON),
				string(overview.FormatJSON), string(overview.FormatCSV)),
		}),
		annotations: readOnly(),
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args overviewArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			format, err := overview.ParseFormat(args.OutputFormat)
			if err != nil {
				return nil, err
			}
			return svc.Render(ctx, format)
		},
	}
}

type detailArgs struct {
	SubsidyID string `json:"subsidy_id"`
}

func detailTool(svc DetailGetter) tool {
	return tool{
		name:  ToolGetSubsidyDetail,
		title: "補助金詳細",
		description: "補助金の詳細（GET /subsidies/id/{subsidy_id}）を取得し、添付ファイルをローカルに保存します。\n" +
			"files に保存したファイルの名前・file:// URL・パス・サイズがカテゴリ別に入ります。" +
			"ファイル本文は get_file_content で取得できます。\n" +
			attribution,
		inputSchema: objectSchema(map[string]any{
			"subsidy_id": stringProp("補助金ID（例: a0WJ200000CDR9HMAX）"),
		}, "subsidy_id"),
		// Attachments are written under the files directory and overwritten on refetch.
		annotations: &toolAnnotations{
			ReadOnlyHint:    boolPtr(false),
			DestructiveHint: boolPtr(false),
			IdempotentHint:  boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args detailArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return svc.Get(ctx, args.SubsidyID)
		},
	}
}

type fileContentArgs struct {
	SubsidyID    string `json:"subsidy_id"`
	Filename     string `json:"filename"`
	ReturnFormat string `json:"return_format"`
}

func fileContentTool(svc ContentGetter) tool {
	return tool{
		name:  ToolGetFileContent,
		title: "保存ファイルの内容",
		description: "get_subsidy_detail で保存した添付ファイルの内容を返します。\n" +
			"return_format=\"markdown\"（既定）は PDF・Word・Excel・PowerPoint・HTML・CSV・RTF・ZIP 等をテキスト化し、" +
			"変換できない場合は BASE64 で返します。return_format=\"base64\" は常に BASE64 です。",
		inputSchema: objectSchema(map[string]any{
			"subsidy_id": stringProp("補助金ID"),
			"filename":   stringProp("ファイル名（get_subsidy_detail の files[].name）"),
			"return_format": enumProp("返却形式", string(domcontent.ModeMarkdown),
				string(domcontent.ModeMarkdown), string(domcontent.ModeBase64)),
		}, "subsidy_id", "filename"),
		annotations: &toolAnnotations{ReadOnlyHint: boolPtr(true), OpenWorldHint: boolPtr(false)},
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args fileContentArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return svc.Get(ctx, args.SubsidyID, args.Filename, domcontent.Mode(args.ReturnFormat))
		},
	}
}

func pingTool(svc Pinger) tool {
	return tool{
		name:        ToolPing,
		title:       "疎通確認",
		description: "サーバーの応答を確認します。status、server、version、timestamp（UTC）を返します。",
		inputSchema: objectSchema(map[string]any{}),
		annotations: &toolAnnotations{ReadOnlyHint: boolPtr(true), IdempotentHint: boolPtr(true), OpenWorldHint: boolPtr(false)},
		call: func(context.Context, json.RawMessage) (any, error) {
			return svc.Ping(), nil
		},
	}
}
