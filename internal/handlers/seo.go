package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"promptdir/internal/logger"
	"promptdir/internal/models"
	"promptdir/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	sitemapLimit = 500
	feedLimit    = 20
	feedExcerpt  = 300 // 每条 feed 截取的字符数
)

// SEOHandler 提供 robots.txt、sitemap.xml 和公开提示词的 RSS feed，私有提示词不会出现在其中
type SEOHandler struct {
	prompts *services.PromptService
	siteURL string
	log     *logger.Logger
}

func NewSEOHandler(prompts *services.PromptService, siteURL string, log *logger.Logger) *SEOHandler {
	return &SEOHandler{
		prompts: prompts,
		siteURL: strings.TrimRight(siteURL, "/"),
		log:     log.With("handler", "SEOHandler"),
	}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /api/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML 动态生成 sitemap.xml：首页加最近的公开提示词
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	prompts, err := h.prompts.RecentPublicPrompts(c.Request.Context(), sitemapLimit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	now := time.Now()
	set := urlset{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{{
			Loc:        h.siteURL + "/",
			LastMod:    now.Format("2006-01-02"),
			ChangeFreq: "daily",
			Priority:   "1.0",
		}},
	}
	for _, p := range prompts {
		// 根据提示词新旧程度调整优先级
		age := now.Sub(p.CreatedAt)
		priority, changefreq := "0.6", "weekly"
		if age < 7*24*time.Hour {
			priority, changefreq = "0.8", "daily"
		} else if age < 30*24*time.Hour {
			priority = "0.7"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.promptURL(&p),
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: changefreq,
			Priority:   priority,
		})
	}

	h.writeXML(c, "application/xml; charset=utf-8", set)
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description cdata    `xml:"description"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// RSSFeed 生成 RSS 2.0 feed，包含最新的公开提示词
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	prompts, err := h.prompts.RecentPublicPrompts(c.Request.Context(), feedLimit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         "Prompt Directory",
			Link:          h.siteURL,
			Description:   "Community-shared AI prompts",
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         make([]rssItem, 0, len(prompts)),
		},
	}
	for _, p := range prompts {
		link := h.promptURL(&p)
		text := p.Description
		if strings.TrimSpace(text) == "" {
			text = p.Prompt
		}
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: cdata{Value: excerpt(text, feedExcerpt)},
			Categories:  []string(p.Categories),
			PubDate:     p.CreatedAt.Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: link},
		})
	}

	h.writeXML(c, "application/rss+xml; charset=utf-8", feed)
}

func (h *SEOHandler) promptURL(p *models.Prompt) string {
	return h.siteURL + "/prompt/" + p.Slug
}

func (h *SEOHandler) writeXML(c *gin.Context, contentType string, v interface{}) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, contentType, append([]byte(xml.Header), out...))
}

// excerpt 去掉 XML 不允许的字符后按 rune 截取前 n 个，被截断时追加省略号
func excerpt(s string, n int) string {
	runes := []rune(strings.TrimSpace(strings.Map(xmlChar, s)))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}

// xmlChar 丢弃 XML 1.0 Char 产生式以外的字符（如 \x00），CDATA 里出现会让整个 feed 无效
func xmlChar(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r',
		r >= 0x20 && r <= 0xD7FF,
		r >= 0xE000 && r <= 0xFFFD,
		r >= 0x10000 && r <= 0x10FFFF:
		return r
	}
	return -1
}
