/*
Package unsorted lists directory entry names without sorting them, for those
many situations where it really doesn't matter whether directory entries are
sorted, or not, such as scanning /proc. So why bother to sort them at all?
*/
package unsorted
