package services

import "promptdir/internal/models"

// OrganizeComments nests a flat comment list into threads. Sibling order follows the
// input order. A reply whose parent is not in the list is dropped.
func OrganizeComments(flat []models.Comment) []*models.CommentNode {
	nodes := make(map[string]*models.CommentNode, len(flat))
	for i := range flat {
		nodes[flat[i].ID] = &models.CommentNode{
			Comment: flat[i],
			Replies: []*models.CommentNode{},
		}
	}

	roots := []*models.CommentNode{}
	for i := range flat {
		node := nodes[flat[i].ID]
		if flat[i].ParentID == nil || *flat[i].ParentID == "" {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*flat[i].ParentID]; ok && parent != node {
			parent.Replies = append(parent.Replies, node)
		}
	}
	return roots
}
