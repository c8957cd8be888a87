package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iconscrape/internal/driver"
	"iconscrape/internal/sites/mcicons"
)

// Detail 详情弹窗中读取到的内容
type Detail struct {
	Title    string
	Tags     []string
	ImageURL string // 页面中的原始地址，可能是相对路径
}

// Extractor 读取已打开的详情弹窗
type Extractor struct {
	driver    driver.Driver
	selectors mcicons.Selectors
	timeout   time.Duration
}

// NewExtractor 创建新的 Extractor 实例
func NewExtractor(d driver.Driver, selectors mcicons.Selectors, timeout time.Duration) *Extractor {
	return &Extractor{
		driver:    d,
		selectors: selectors,
		timeout:   timeout,
	}
}

// Extract 等待详情弹窗出现，读取标题、标签和图片地址。
// 标签保持页面顺序，分类依赖这个顺序；空白标签会被丢弃。
func (e *Extractor) Extract(ctx context.Context) (Detail, error) {
	if _, err := e.driver.WaitFor(ctx, e.selectors.Modal, e.timeout); err != nil {
		return Detail{}, fmt.Errorf("detail view did not open: %w", err)
	}

	img, err := e.driver.WaitFor(ctx, e.selectors.ModalImage, e.timeout)
	if err != nil {
		return Detail{}, fmt.Errorf("failed to find detail image: %w", err)
	}
	src, err := e.driver.Attribute(ctx, img, "src")
	if err != nil {
		return Detail{}, err
	}

	titleEl, err := e.driver.WaitFor(ctx, e.selectors.ModalTitle, e.timeout)
	if err != nil {
		return Detail{}, fmt.Errorf("failed to find detail title: %w", err)
	}
	title, err := e.driver.Text(ctx, titleEl)
	if err != nil {
		return Detail{}, err
	}

	tagEls, err := e.driver.FindAll(ctx, e.selectors.ModalTag)
	if err != nil {
		return Detail{}, err
	}
	tags := make([]string, 0, len(tagEls))
	for _, el := range tagEls {
		tag, err := e.driver.Text(ctx, el)
		if err != nil {
			return Detail{}, err
		}
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return Detail{
		Title:    strings.TrimSpace(title),
		Tags:     tags,
		ImageURL: src,
	}, nil
}
