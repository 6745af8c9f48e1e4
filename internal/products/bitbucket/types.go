package bitbucket

// Repository is the immutable record the formatter renders.
type Repository struct {
	Slug        string
	Name        string
	FullName    string
	Description string
	Language    string
	IsPrivate   bool
	MainBranch  string
	Updated     string
}

// PullRequest is one code review.
type PullRequest struct {
	ID           int
	Title        string
	Description  string
	State        string
	Author       string
	SourceBranch string
	TargetBranch string
	Created      string
	Updated      string
}

// Branch is a repository ref.
type Branch struct {
	Name   string
	Target string
}

// Commit is one change in history.
type Commit struct {
	Hash    string
	Message string
	Author  string
	Date    string
}

// CodeMatch is one code-search hit.
type CodeMatch struct {
	Path    string
	Repo    string
	Matches int
}

type repoDTO struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	IsPrivate   bool   `json:"is_private"`
	UpdatedOn   string `json:"updated_on"`
	MainBranch  struct {
		Name string `json:"name"`
	} `json:"mainbranch"`
}

type repoPageDTO struct {
	Values []repoDTO `json:"values"`
}

type prDTO struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       string `json:"state"`
	CreatedOn   string `json:"created_on"`
	UpdatedOn   string `json:"updated_on"`
	Author      struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
	Source struct {
		Branch struct {
			Name string `json:"name"`
		} `json:"branch"`
	} `json:"source"`
	Destination struct {
		Branch struct {
			Name string `json:"name"`
		} `json:"branch"`
	} `json:"destination"`
}

type prPageDTO struct {
	Values []prDTO `json:"values"`
}

type branchDTO struct {
	Name   string `json:"name"`
	Target struct {
		Hash string `json:"hash"`
	} `json:"target"`
}

type branchPageDTO struct {
	Values []branchDTO `json:"values"`
}

type commitDTO struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Author  struct {
		Raw  string `json:"raw"`
		User struct {
			DisplayName string `json:"display_name"`
		} `json:"user"`
	} `json:"author"`
}

type commitPageDTO struct {
	Values []commitDTO `json:"values"`
}

type codeSearchDTO struct {
	Values []struct {
		ContentMatchCount int `json:"content_match_count"`
		File              struct {
			Path string `json:"path"`
		} `json:"file"`
	} `json:"values"`
}

func (d repoDTO) record() Repository {
	return Repository{
		Slug:        d.Slug,
		Name:        d.Name,
		FullName:    d.FullName,
		Description: d.Description,
		Language:    d.Language,
		IsPrivate:   d.IsPrivate,
		MainBranch:  d.MainBranch.Name,
		Updated:     d.UpdatedOn,
	}
}

func (d prDTO) record() PullRequest {
	return PullRequest{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		State:        d.State,
		Author:       d.Author.DisplayName,
		SourceBranch: d.Source.Branch.Name,
		TargetBranch: d.Destination.Branch.Name,
		Created:      d.CreatedOn,
		Updated:      d.UpdatedOn,
	}
}

func (d commitDTO) record() Commit {
	author := d.Author.User.DisplayName
	if author == "" {
		author = d.Author.Raw
	}
	return Commit{
		Hash:    d.Hash,
		Message: d.Message,
		Author:  author,
		Date:    d.Date,
	}
}
