package jira

// Issue is the immutable record handed to the formatter. Optional scalar
// fields are empty strings, never nulls.
type Issue struct {
	ID          string
	Key         string
	Summary     string
	Description string
	Status      string
	IssueType   string
	Priority    string
	Assignee    string
	Reporter    string
	Created     string
	Updated     string
	Labels      []string
}

// Project identifies a Jira project.
type Project struct {
	ID   string
	Key  string
	Name string
	Lead string
}

// Sprint is an agile board sprint.
type Sprint struct {
	ID        int
	Name      string
	State     string
	StartDate string
	EndDate   string
	Goal      string
}

// Comment on an issue.
type Comment struct {
	ID      string
	Author  string
	Body    string
	Created string
}

// SearchResult is one page of a search.
type SearchResult struct {
	Total      int
	StartAt    int
	MaxResults int
	Issues     []Issue
}

// wire DTOs; only the fields the formatters need are decoded.

type issueDTO struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary     string      `json:"summary"`
		Description interface{} `json:"description"`
		Created     string      `json:"created"`
		Updated     string      `json:"updated"`
		Labels      []string    `json:"labels"`
		Status      struct {
			Name string `json:"name"`
		} `json:"status"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Priority struct {
			Name string `json:"name"`
		} `json:"priority"`
		Assignee struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Reporter struct {
			DisplayName string `json:"displayName"`
		} `json:"reporter"`
	} `json:"fields"`
}

type searchDTO struct {
	Total      int        `json:"total"`
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Issues     []issueDTO `json:"issues"`
}

type projectDTO struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Lead struct {
		DisplayName string `json:"displayName"`
	} `json:"lead"`
}

type sprintDTO struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Goal      string `json:"goal"`
}

type sprintPageDTO struct {
	Values []sprintDTO `json:"values"`
}

type commentDTO struct {
	ID     string `json:"id"`
	Author struct {
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Body    interface{} `json:"body"`
	Created string      `json:"created"`
}

type commentPageDTO struct {
	Comments []commentDTO `json:"comments"`
}

type createdDTO struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type transitionDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transitionsDTO struct {
	Transitions []transitionDTO `json:"transitions"`
}

func (d issueDTO) record() Issue {
	labels := make([]string, len(d.Fields.Labels))
	copy(labels, d.Fields.Labels)
	return Issue{
		ID:          d.ID,
		Key:         d.Key,
		Summary:     d.Fields.Summary,
		Description: plainText(d.Fields.Description),
		Status:      d.Fields.Status.Name,
		IssueType:   d.Fields.IssueType.Name,
		Priority:    d.Fields.Priority.Name,
		Assignee:    d.Fields.Assignee.DisplayName,
		Reporter:    d.Fields.Reporter.DisplayName,
		Created:     d.Fields.Created,
		Updated:     d.Fields.Updated,
		Labels:      labels,
	}
}

// plainText flattens either a plain string or an Atlassian document body
// into readable text.
func plainText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return flattenDoc(t)
	default:
		return ""
	}
}

func flattenDoc(node map[string]interface{}) string {
	if text, ok := node["text"].(string); ok {
		return text
	}
	content, ok := node["content"].([]interface{})
	if !ok {
		return ""
	}
	out := ""
	for _, child := range content {
		m, ok := child.(map[string]interface{})
		if !ok {
			continue
		}
		part := flattenDoc(m)
		if part == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += part
	}
	return out
}
