package queue

import "strings"

// mergeSort sorts the list starting at head and returns its new head.
//
// The list is split in halves with a slow and a fast cursor, so the recursion
// depth is bounded by log2 of the list length.
func mergeSort(head *Element) *Element {
	if head == nil || head.next == nil {
		return head
	}

	slow, fast := head, head.next
	for fast != nil && fast.next != nil {
		slow = slow.next
		fast = fast.next.next
	}
	right := slow.next
	slow.next = nil

	return merge(mergeSort(head), mergeSort(right))
}

// merge merges two sorted lists into one by relinking their elements.
// On equal values the element of left is taken first, which keeps the sort stable.
func merge(left, right *Element) *Element {
	var head *Element
	link := &head
	for left != nil && right != nil {
		if strings.Compare(left.value, right.value) <= 0 {
			*link = left
			left = left.next
		} else {
			*link = right
			right = right.next
		}
		link = &(*link).next
	}

	if left != nil {
		*link = left
	} else {
		*link = right
	}

	return head
}
