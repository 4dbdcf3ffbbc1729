package github

// GraphQL queries, all cursor-paginated. Reviews ride along inside the PR
// query: a bounded per-PR review count in exchange for one round trip per
// repository page instead of one per pull request.

const reposQuery = `
query($org: String!, $cursor: String) {
  organization(login: $org) {
    repositories(first: 100, after: $cursor, orderBy: {field: PUSHED_AT, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        name
        isArchived
        isFork
        pushedAt
      }
    }
  }
}`

const pullRequestsQuery = `
query($owner: String!, $repo: String!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    pullRequests(first: 100, after: $cursor, orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        number
        createdAt
        mergedAt
        state
        author { login }
        additions
        deletions
        reviews(first: 50) {
          nodes {
            author { login }
            submittedAt
            state
          }
        }
      }
    }
  }
}`

const commitsQuery = `
query($owner: String!, $repo: String!, $since: GitTimestamp!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: 100, after: $cursor, since: $since) {
            pageInfo {
              hasNextPage
              endCursor
            }
            nodes {
              author {
                user { login }
                name
                date
              }
              additions
              deletions
            }
          }
        }
      }
    }
  }
}`

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type actor struct {
	Login string `json:"login"`
}

type repoNode struct {
	Name       string `json:"name"`
	IsArchived bool   `json:"isArchived"`
	IsFork     bool   `json:"isFork"`
	PushedAt   string `json:"pushedAt"`
}

type reposResponse struct {
	Organization struct {
		Repositories struct {
			PageInfo pageInfo   `json:"pageInfo"`
			Nodes    []repoNode `json:"nodes"`
		} `json:"repositories"`
	} `json:"organization"`
}

type reviewNode struct {
	Author      *actor `json:"author"`
	SubmittedAt string `json:"submittedAt"`
	State       string `json:"state"`
}

type prNode struct {
	Number    int    `json:"number"`
	CreatedAt string `json:"createdAt"`
	MergedAt  string `json:"mergedAt"`
	State     string `json:"state"`
	Author    *actor `json:"author"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Reviews   struct {
		Nodes []reviewNode `json:"nodes"`
	} `json:"reviews"`
}

type pullRequestsResponse struct {
	Repository struct {
		PullRequests struct {
			PageInfo pageInfo `json:"pageInfo"`
			Nodes    []prNode `json:"nodes"`
		} `json:"pullRequests"`
	} `json:"repository"`
}

type commitNode struct {
	Author struct {
		User *actor `json:"user"`
		Name string `json:"name"`
		Date string `json:"date"`
	} `json:"author"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

type commitsResponse struct {
	Repository struct {
		DefaultBranchRef *struct {
			Target struct {
				History struct {
					PageInfo pageInfo     `json:"pageInfo"`
					Nodes    []commitNode `json:"nodes"`
				} `json:"history"`
			} `json:"target"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}
