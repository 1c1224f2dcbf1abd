package github

import (
	"context"

	"github.com/shurcooL/graphql"

	"github.com/mithrel/gitnotes/internal/apperr"
)

// DeleteIssueInput is a custom scalar type for GitHub's DeleteIssueInput.
// The type name is what shurcooL/graphql declares for $input.
type DeleteIssueInput map[string]interface{}

// DeleteIssue permanently deletes an issue. REST has no such endpoint, so
// this goes through GraphQL and needs the issue's node id.
func (c *Client) DeleteIssue(ctx context.Context, nodeID string) error {
	if nodeID == "" {
		return apperr.Validation("delete issue", "issue node id is required")
	}
	var mutation struct {
		DeleteIssue struct {
			ClientMutationID *graphql.String `graphql:"clientMutationId"`
		} `graphql:"deleteIssue(input: $input)"`
	}
	input := DeleteIssueInput{"issueId": graphql.ID(nodeID)}
	variables := map[string]interface{}{"input": input}

	if err := c.gql.Mutate(ctx, &mutation, variables); err != nil {
		c.log.Warn("github: deleteIssue failed", "err", err)
		return apperr.FromRemote("delete issue", err)
	}
	return nil
}
