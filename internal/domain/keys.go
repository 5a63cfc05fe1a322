package domain

// KeyPrefix namespaces every key glycomeal writes to the store.
const KeyPrefix = "glycomeal:"
