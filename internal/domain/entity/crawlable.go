package entity

import (
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

// 定义可爬取的实体接口
// D是文档类型,必须实现model.Document接口
type Crawlable[D model.Document] interface {
	*RowAppMsg
	ToDocument(accountID string) D
}

// ToDocuments 将爬取到的实体批量转换为文档
func ToDocuments[C Crawlable[D], D model.Document](accountID string, rows []C) []D {
	docs := make([]D, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.ToDocument(accountID))
	}
	return docs
}
