package rss

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/awano27/daily-ai-news/internal/news"
)

// LoadFeeds reads the category -> sources mapping from a YAML file.
//
//	business:
//	  - url: https://techcrunch.com/feed/
//	    name: TechCrunch
//	    general: true
//	tools:
//	  - https://huggingface.co/blog/feed.xml
//
// Category keys are case-insensitive; their order in the file is the
// processing order.
func LoadFeeds(path string) ([]news.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFeeds(data)
}

func ParseFeeds(data []byte) ([]news.Category, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("feeds config is empty")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("feeds config: expected a mapping of categories, got line %d", doc.Line)
	}

	var cats []news.Category
	index := map[string]int{}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := strings.ToLower(strings.TrimSpace(doc.Content[i].Value))
		if name == "" {
			continue
		}
		sources, err := decodeSources(doc.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		if at, ok := index[name]; ok {
			cats[at].Sources = append(cats[at].Sources, sources...)
			continue
		}
		index[name] = len(cats)
		cats = append(cats, news.Category{Name: name, Sources: sources})
	}
	return cats, nil
}

func decodeSources(node *yaml.Node) ([]news.FeedSource, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list of sources at line %d", node.Line)
	}
	out := make([]news.FeedSource, 0, len(node.Content))
	for _, n := range node.Content {
		var src news.FeedSource
		if n.Kind == yaml.ScalarNode {
			src.URL = n.Value
		} else if err := n.Decode(&src); err != nil {
			return nil, err
		}
		src.URL = strings.TrimSpace(src.URL)
		if src.URL == "" {
			continue
		}
		if src.Name == "" {
			src.Name = hostOf(src.URL)
		}
		out = append(out, src)
	}
	return out, nil
}

// DefaultFeeds is used when no feeds config can be read.
func DefaultFeeds() []news.Category {
	return []news.Category{
		{Name: "business", Sources: []news.FeedSource{
			{URL: "https://techcrunch.com/category/artificial-intelligence/feed/", Name: "TechCrunch AI"},
			{URL: "https://aws.amazon.com/blogs/machine-learning/feed/", Name: "AWS ML Blog"},
			{URL: "https://blog.google/technology/ai/rss/", Name: "Google AI Blog"},
		}},
		{Name: "tools", Sources: []news.FeedSource{
			{URL: "https://huggingface.co/blog/feed.xml", Name: "Hugging Face"},
			{URL: "https://pytorch.org/feed.xml", Name: "PyTorch"},
			{URL: "https://openai.com/news/rss.xml", Name: "OpenAI"},
		}},
		{Name: "posts", Sources: []news.FeedSource{
			{URL: "https://www.reddit.com/r/MachineLearning/.rss", Name: "Reddit ML"},
			{URL: "http://export.arxiv.org/rss/cs.AI", Name: "arXiv cs.AI"},
			{URL: "http://export.arxiv.org/rss/cs.LG", Name: "arXiv cs.LG"},
		}},
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
