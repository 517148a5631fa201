package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/errs"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

// RowPublishResponse appmsgpublish?action=list_ex 的响应体
type RowPublishResponse struct {
	BaseResp struct {
		Ret    int    `json:"ret"`
		ErrMsg string `json:"err_msg"`
	} `json:"base_resp"`
	// 平台有时返回对象,有时返回 JSON 字符串
	PublishPage json.RawMessage `json:"publish_page"`
}

type RowPublishPage struct {
	TotalCount   int              `json:"total_count"`
	PublishCount int              `json:"publish_count"`
	PublishList  []RowPublishItem `json:"publish_list"`
}

type RowPublishItem struct {
	PublishType int             `json:"publish_type"`
	PublishInfo json.RawMessage `json:"publish_info"`
	// 部分记录不带 publish_info,文章信息直接放在 appmsg_info 或 title 中
	AppMsgInfo *RowAppMsg `json:"appmsg_info"`
	Title      string     `json:"title"`
	Link       string     `json:"link"`
}

// rowPublishDetail publish_info 为数组时的元素
type rowPublishDetail struct {
	RowAppMsg
	AppMsgInfo *RowAppMsg `json:"appmsg_info"`
}

type RowPublishInfo struct {
	Type     int         `json:"type"`
	MsgID    int64       `json:"msgid"`
	AppMsgEx []RowAppMsg `json:"appmsgex"`
}

type RowAppMsg struct {
	Aid        string `json:"aid"`
	AppMsgID   int64  `json:"appmsgid"`
	ItemIdx    int    `json:"itemidx"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	Digest     string `json:"digest"`
	AuthorName string `json:"author_name"`
	Cover      string `json:"cover"`
	CreateTime int64  `json:"create_time"`
	UpdateTime int64  `json:"update_time"`
}

// ParsePublishPage 解析响应体,base_resp.ret 非 0 时返回 *errs.APIError
func ParsePublishPage(body []byte) (*RowPublishPage, error) {
	var resp RowPublishResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: JSON解析失败: %v", errs.ErrPlatform, err)
	}
	if resp.BaseResp.Ret != errs.RetOK {
		return nil, errs.NewAPIError(resp.BaseResp.Ret, resp.BaseResp.ErrMsg)
	}
	var page RowPublishPage
	if err := decodeEmbedded(resp.PublishPage, &page); err != nil {
		return nil, fmt.Errorf("%w: publish_page解析失败: %v", errs.ErrPlatform, err)
	}
	return &page, nil
}

// AppMsgs 按平台顺序展开本页所有文章,返回无法从中得到任何文章的发布记录数
func (p *RowPublishPage) AppMsgs() ([]*RowAppMsg, int) {
	msgs := make([]*RowAppMsg, 0, len(p.PublishList))
	skipped := 0
	for i := range p.PublishList {
		found := p.PublishList[i].appMsgs()
		if len(found) == 0 {
			skipped++
			continue
		}
		msgs = append(msgs, found...)
	}
	return msgs, skipped
}

// appMsgs 依次尝试 appmsg_info、publish_info(对象或数组)、title
func (item *RowPublishItem) appMsgs() []*RowAppMsg {
	if item.AppMsgInfo != nil && item.AppMsgInfo.Title != "" {
		return []*RowAppMsg{item.AppMsgInfo}
	}

	raw, err := unquoteEmbedded(item.PublishInfo)
	if err == nil && len(raw) > 0 {
		if raw[0] == '[' {
			var details []rowPublishDetail
			if json.Unmarshal(raw, &details) == nil {
				var msgs []*RowAppMsg
				for j := range details {
					switch d := &details[j]; {
					case d.Title != "":
						msgs = append(msgs, &d.RowAppMsg)
					case d.AppMsgInfo != nil && d.AppMsgInfo.Title != "":
						msgs = append(msgs, d.AppMsgInfo)
					}
				}
				if len(msgs) > 0 {
					return msgs
				}
			}
		} else {
			var info RowPublishInfo
			if json.Unmarshal(raw, &info) == nil && len(info.AppMsgEx) > 0 {
				msgs := make([]*RowAppMsg, 0, len(info.AppMsgEx))
				for j := range info.AppMsgEx {
					msgs = append(msgs, &info.AppMsgEx[j])
				}
				return msgs
			}
		}
	}

	if item.Title != "" {
		return []*RowAppMsg{{Title: item.Title, Link: item.Link}}
	}
	return nil
}

// EntryCount 本页返回的发布记录数,用于判断是否还有下一页
func (p *RowPublishPage) EntryCount() int {
	return len(p.PublishList)
}

func (m *RowAppMsg) ToDocument(accountID string) *model.ArticleDoc {
	ts := m.UpdateTime
	if ts == 0 {
		ts = m.CreateTime
	}
	var publishTime time.Time
	if ts > 0 {
		publishTime = time.Unix(ts, 0)
	}
	id := m.Aid
	if id == "" && m.AppMsgID != 0 {
		id = strconv.FormatInt(m.AppMsgID, 10) + "_" + strconv.Itoa(m.ItemIdx)
	}
	if id == "" {
		id = m.Link
	}
	return &model.ArticleDoc{
		ID:          id,
		AccountID:   accountID,
		Title:       m.Title,
		Link:        m.Link,
		Digest:      m.Digest,
		PublishTime: publishTime,
	}
}

func decodeEmbedded(raw json.RawMessage, v any) error {
	raw, err := unquoteEmbedded(raw)
	if err != nil || len(raw) == 0 {
		return err
	}
	return json.Unmarshal(raw, v)
}

// unquoteEmbedded 平台可能把 JSON 再编码成字符串,这里统一还原,空值返回 nil
func unquoteEmbedded(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return bytes.TrimSpace([]byte(s)), nil
}
